package utils

import (
	"math"
)

// Epsilon is the tolerance used when comparing world-space distances.
const Epsilon = 1e-9

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// ClampInt returns v limited to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FloorInt floors f and converts it to an int.
func FloorInt(f float64) int {
	return int(math.Floor(f))
}

// Sign returns -1, 0 or 1 matching the sign of f, treating |f| < epsilon as zero.
func Sign(f, epsilon float64) int {
	switch {
	case f >= epsilon:
		return 1
	case f <= -epsilon:
		return -1
	default:
		return 0
	}
}

// CeilLog2 returns the smallest d with 2^d >= n. It returns 0 for n <= 1.
func CeilLog2(n int) int {
	d := 0
	for (1 << d) < n {
		d++
	}
	return d
}
