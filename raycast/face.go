package raycast

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/voxel/utils"
	"go.viam.com/voxel/voxel"
)

// Face is the result of a detection: a face of one voxel, a point on the ground plane, or
// nothing. The zero Face is invalid.
type Face struct {
	valid     bool
	ground    bool
	pos       voxel.Coord
	direction voxel.FaceDirection
	hitPoint  r3.Vector
}

// NewFace returns the face of the voxel at pos pointing in direction.
func NewFace(pos voxel.Coord, direction voxel.FaceDirection) Face {
	return Face{valid: true, pos: pos, direction: direction}
}

// NewGroundFace returns a ground plane face at hit. The Y component is forced to zero.
func NewGroundFace(hit r3.Vector) Face {
	hit.Y = 0
	return Face{valid: true, ground: true, direction: voxel.PositiveY, hitPoint: hit}
}

// IsValid reports whether the face describes a hit.
func (f Face) IsValid() bool {
	return f.valid
}

// IsGroundPlane reports whether the face is a point on the ground plane rather than a voxel face.
func (f Face) IsGroundPlane() bool {
	return f.ground
}

// VoxelPosition is the voxel owning the face. It is the zero Coord for ground faces.
func (f Face) VoxelPosition() voxel.Coord {
	return f.pos
}

// Direction is the outward direction of the face. Ground faces point up.
func (f Face) Direction() voxel.FaceDirection {
	return f.direction
}

// GroundPlaneHitPoint is the exact world point where a ground face was hit.
func (f Face) GroundPlaneHitPoint() r3.Vector {
	return f.hitPoint
}

// Normal is the outward unit normal.
func (f Face) Normal() r3.Vector {
	if !f.valid {
		return r3.Vector{}
	}
	return f.direction.Normal()
}

// PlacementPosition is the cell a new voxel would occupy when placed against this face.
func (f Face) PlacementPosition() voxel.Coord {
	return f.pos.Offset(f.direction)
}

// GroundCell is the Y=0 cell containing a ground face's hit point. For voxel faces it is the same
// as PlacementPosition.
func (f Face) GroundCell(voxelSize float64) voxel.Coord {
	if !f.ground {
		return f.PlacementPosition()
	}
	return voxel.Coord{
		X: utils.FloorInt(f.hitPoint.X / voxelSize),
		Z: utils.FloorInt(f.hitPoint.Z / voxelSize),
	}
}

// Center is the world position of the middle of the face. For ground faces it is the hit point.
func (f Face) Center(voxelSize float64) r3.Vector {
	if f.ground {
		return f.hitPoint
	}
	return f.pos.Center(voxelSize).Add(f.direction.Normal().Mul(voxelSize / 2))
}

// Corners returns the four corners of the face, counter-clockwise when seen from outside the
// voxel. Ground faces get a voxel-sized square around the hit point.
func (f Face) Corners(voxelSize float64) [4]r3.Vector {
	center := f.Center(voxelSize)
	axis := f.direction.Axis()
	u, v := (axis+1)%3, (axis+2)%3
	if f.direction.Sign() < 0 {
		u, v = v, u
	}
	half := voxelSize / 2
	du := unitAxis(u).Mul(half)
	dv := unitAxis(v).Mul(half)
	return [4]r3.Vector{
		center.Sub(du).Sub(dv),
		center.Add(du).Sub(dv),
		center.Add(du).Add(dv),
		center.Sub(du).Add(dv),
	}
}

// Area is the area of the face in square world units.
func (f Face) Area(voxelSize float64) float64 {
	return voxelSize * voxelSize
}

// Equal reports whether two faces describe the same hit.
func (f Face) Equal(other Face) bool {
	if f.valid != other.valid || f.ground != other.ground {
		return false
	}
	if !f.valid {
		return true
	}
	if f.ground {
		return f.hitPoint.ApproxEqual(other.hitPoint)
	}
	return f.pos == other.pos && f.direction == other.direction
}

func (f Face) String() string {
	switch {
	case !f.valid:
		return "no face"
	case f.ground:
		return fmt.Sprintf("ground plane at (%.3f, 0, %.3f)", f.hitPoint.X, f.hitPoint.Z)
	default:
		return fmt.Sprintf("%v face of voxel %v", f.direction, f.pos)
	}
}

func unitAxis(axis int) r3.Vector {
	switch axis {
	case 0:
		return r3.Vector{X: 1}
	case 1:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}
