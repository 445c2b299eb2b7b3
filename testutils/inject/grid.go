package inject

import (
	"go.viam.com/voxel/raycast"
	"go.viam.com/voxel/voxel"
)

// Grid is an injected raycast grid. It does not implement raycast.RangeQuerier, so
// region queries against it scan cell by cell.
type Grid struct {
	raycast.Grid
	GetVoxelFunc   func(pos voxel.Coord) bool
	DimensionsFunc func() voxel.Coord
	VoxelSizeFunc  func() float64
}

// NewGrid returns a grid of the given dimensions and voxel size occupied exactly at voxels.
func NewGrid(dims voxel.Coord, voxelSize float64, voxels ...voxel.Coord) *Grid {
	occupied := make(map[voxel.Coord]bool, len(voxels))
	for _, v := range voxels {
		occupied[v] = true
	}
	return &Grid{
		GetVoxelFunc:   func(pos voxel.Coord) bool { return occupied[pos] },
		DimensionsFunc: func() voxel.Coord { return dims },
		VoxelSizeFunc:  func() float64 { return voxelSize },
	}
}

// GetVoxel calls the injected GetVoxel or the real version.
func (g *Grid) GetVoxel(pos voxel.Coord) bool {
	if g.GetVoxelFunc == nil {
		return g.Grid.GetVoxel(pos)
	}
	return g.GetVoxelFunc(pos)
}

// Dimensions calls the injected Dimensions or the real version.
func (g *Grid) Dimensions() voxel.Coord {
	if g.DimensionsFunc == nil {
		return g.Grid.Dimensions()
	}
	return g.DimensionsFunc()
}

// VoxelSize calls the injected VoxelSize or the real version.
func (g *Grid) VoxelSize() float64 {
	if g.VoxelSizeFunc == nil {
		return g.Grid.VoxelSize()
	}
	return g.VoxelSizeFunc()
}
