// Package raycast finds which voxel face a ray hits. Detection runs a grid DDA over any Grid, can
// fall back to the Y=0 ground plane, and can list the exposed faces inside a region.
package raycast

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/voxel/voxel"
)

// Ray is a half line with a unit direction.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// NewRay returns a ray from origin along direction. The direction is normalized; a zero
// direction is kept as is and never hits anything.
func NewRay(origin, direction r3.Vector) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(t))
}

func (r Ray) String() string {
	return fmt.Sprintf("ray from %v toward %v", r.Origin, r.Direction)
}

// RaycastHit describes where a ray met a voxel.
type RaycastHit struct {
	Hit bool
	// Distance is measured along the ray from its origin in world units.
	Distance float64
	Position r3.Vector
	Normal   r3.Vector
	Face     Face
}

func missedHit() RaycastHit {
	return RaycastHit{}
}

func newHit(face Face, distance float64, position r3.Vector) RaycastHit {
	return RaycastHit{
		Hit:      true,
		Distance: distance,
		Position: position,
		Normal:   face.Normal(),
		Face:     face,
	}
}

// Grid is the occupancy a ray is traced through. Cells span [0, Dimensions()) on each axis with
// cell (0, 0, 0) at the world origin and each cell VoxelSize() wide.
type Grid interface {
	GetVoxel(pos voxel.Coord) bool
	Dimensions() voxel.Coord
	VoxelSize() float64
}

// RangeQuerier is implemented by grids that can list their occupied cells in a box faster than
// probing every cell.
type RangeQuerier interface {
	VoxelsInRange(lo, hi voxel.Coord) []voxel.Coord
}
