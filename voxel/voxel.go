// Package voxel holds the value types shared by the octree, grid and raycast packages.
package voxel

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Coord is an integer grid coordinate. Higher layers are responsible for mapping world
// coordinates into the non-negative grid space.
type Coord struct {
	X, Y, Z int
}

// NewCoord returns the coordinate (x, y, z).
func NewCoord(x, y, z int) Coord {
	return Coord{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum.
func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Sub returns the component-wise difference.
func (c Coord) Sub(o Coord) Coord {
	return Coord{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

// Offset returns the neighboring coordinate across the given face.
func (c Coord) Offset(dir FaceDirection) Coord {
	return c.Add(dir.Delta())
}

// Axis returns the component for axis 0 (X), 1 (Y) or 2 (Z).
func (c Coord) Axis(axis int) int {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// WithAxis returns a copy of c with the component for axis replaced.
func (c Coord) WithAxis(axis, value int) Coord {
	switch axis {
	case 0:
		c.X = value
	case 1:
		c.Y = value
	default:
		c.Z = value
	}
	return c
}

// Min returns the component-wise minimum.
func (c Coord) Min(o Coord) Coord {
	return Coord{min(c.X, o.X), min(c.Y, o.Y), min(c.Z, o.Z)}
}

// Max returns the component-wise maximum.
func (c Coord) Max(o Coord) Coord {
	return Coord{max(c.X, o.X), max(c.Y, o.Y), max(c.Z, o.Z)}
}

// Within reports whether lo <= c <= hi on every axis.
func (c Coord) Within(lo, hi Coord) bool {
	return c.X >= lo.X && c.X <= hi.X &&
		c.Y >= lo.Y && c.Y <= hi.Y &&
		c.Z >= lo.Z && c.Z <= hi.Z
}

// Vector returns the world position of the cell's minimum corner for cells of the given size.
func (c Coord) Vector(size float64) r3.Vector {
	return r3.Vector{X: float64(c.X) * size, Y: float64(c.Y) * size, Z: float64(c.Z) * size}
}

// Center returns the world position of the cell's center for cells of the given size.
func (c Coord) Center(size float64) r3.Vector {
	return c.Vector(size).Add(r3.Vector{X: size / 2, Y: size / 2, Z: size / 2})
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}
