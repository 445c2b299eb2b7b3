package voxel

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// FaceDirection is one of the six axis-aligned outward normals of a voxel cell.
type FaceDirection uint8

// The six face directions, ordered +X, -X, +Y, -Y, +Z, -Z.
const (
	PositiveX FaceDirection = iota
	NegativeX
	PositiveY
	NegativeY
	PositiveZ
	NegativeZ
)

// AllFaceDirections lists every face direction in enum order.
var AllFaceDirections = [6]FaceDirection{PositiveX, NegativeX, PositiveY, NegativeY, PositiveZ, NegativeZ}

var faceDirectionNames = [6]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

// FaceFromAxis returns the face on the given axis (0, 1 or 2) facing toward positive when
// positive is true.
func FaceFromAxis(axis int, positive bool) FaceDirection {
	dir := FaceDirection(axis * 2)
	if !positive {
		dir++
	}
	return dir
}

// ParseFaceDirection parses names like "+X", "-y" or "PositiveZ".
func ParseFaceDirection(s string) (FaceDirection, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range faceDirectionNames {
		long := strings.ToUpper(FaceDirection(i).longName())
		if upper == name || upper == long {
			return FaceDirection(i), nil
		}
	}
	return 0, errors.Errorf("unknown face direction %q", s)
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (d FaceDirection) Axis() int {
	return int(d) / 2
}

// Sign returns +1 for positive faces and -1 for negative ones.
func (d FaceDirection) Sign() int {
	if d%2 == 0 {
		return 1
	}
	return -1
}

// Opposite returns the face on the other side of the cell.
func (d FaceDirection) Opposite() FaceDirection {
	return d ^ 1
}

// Delta is the unit grid step across the face.
func (d FaceDirection) Delta() Coord {
	return Coord{}.WithAxis(d.Axis(), d.Sign())
}

// Normal is the outward unit normal of the face.
func (d FaceDirection) Normal() r3.Vector {
	delta := d.Delta()
	return r3.Vector{X: float64(delta.X), Y: float64(delta.Y), Z: float64(delta.Z)}
}

func (d FaceDirection) longName() string {
	prefix := "Positive"
	if d.Sign() < 0 {
		prefix = "Negative"
	}
	return prefix + string(rune('X'+d.Axis()))
}

func (d FaceDirection) String() string {
	if int(d) < len(faceDirectionNames) {
		return faceDirectionNames[d]
	}
	return fmt.Sprintf("FaceDirection(%d)", uint8(d))
}
