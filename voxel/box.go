package voxel

import (
	"math"

	"github.com/golang/geo/r3"
)

// Box is an axis-aligned region in world units.
type Box struct {
	Min, Max r3.Vector
}

// NewBox returns the box spanned by two opposite corners in any order.
func NewBox(a, b r3.Vector) Box {
	return Box{
		Min: r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Size returns the extent of the box along each axis.
func (b Box) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the closed box.
func (b Box) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// CellRange returns the inclusive range of cells of the given size that overlap the box. A cell
// touching the box only at its boundary is excluded unless the box is degenerate on that axis.
func (b Box) CellRange(cellSize float64) (lo, hi Coord) {
	lo = Coord{
		X: int(math.Floor(b.Min.X / cellSize)),
		Y: int(math.Floor(b.Min.Y / cellSize)),
		Z: int(math.Floor(b.Min.Z / cellSize)),
	}
	hi = Coord{
		X: max(lo.X, int(math.Ceil(b.Max.X/cellSize))-1),
		Y: max(lo.Y, int(math.Ceil(b.Max.Y/cellSize))-1),
		Z: max(lo.Z, int(math.Ceil(b.Max.Z/cellSize))-1),
	}
	return lo, hi
}
