// Package grid provides VoxelGrid, a bounded voxel grid at one resolution backed by a sparse
// octree. The grid spans [0, dims) cells on each axis with cell (0, 0, 0) at the world origin.
package grid

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/octree"
	"go.viam.com/voxel/utils"
	"go.viam.com/voxel/voxel"
)

// VoxelGrid is a workspace-sized grid of voxels at a single resolution.
type VoxelGrid struct {
	logger     logging.Logger
	resolution Resolution
	workspace  r3.Vector
	dims       voxel.Coord
	pool       *octree.Pool
	tree       *octree.SparseOctree
}

// New creates an empty grid covering workspace (in meters) at the given resolution. The octree is
// the smallest one whose cube contains every cell of the grid.
func New(res Resolution, workspace r3.Vector, pool *octree.Pool, logger logging.Logger) (*VoxelGrid, error) {
	if !res.Valid() {
		return nil, errors.Errorf("invalid voxel resolution %d", uint8(res))
	}
	if err := validateWorkspace(workspace); err != nil {
		return nil, err
	}

	dims := calculateDimensions(res, workspace)
	tree, err := octree.New(depthFor(dims), pool, logger)
	if err != nil {
		return nil, errors.Wrap(err, "creating voxel grid octree")
	}
	logger.Debugw("voxel grid created", "resolution", res, "dims", dims, "depth", tree.MaxDepth())

	return &VoxelGrid{
		logger:     logger,
		resolution: res,
		workspace:  workspace,
		dims:       dims,
		pool:       pool,
		tree:       tree,
	}, nil
}

func validateWorkspace(workspace r3.Vector) error {
	if workspace.X <= 0 || workspace.Y <= 0 || workspace.Z <= 0 {
		return errors.Errorf("invalid workspace size %v, every axis must be positive", workspace)
	}
	return nil
}

// calculateDimensions returns the number of whole cells per axis, at least one.
func calculateDimensions(res Resolution, workspace r3.Vector) voxel.Coord {
	size := res.Size()
	cells := func(extent float64) int {
		return max(1, int(math.Floor(extent/size)))
	}
	return voxel.Coord{X: cells(workspace.X), Y: cells(workspace.Y), Z: cells(workspace.Z)}
}

func depthFor(dims voxel.Coord) int {
	return utils.CeilLog2(max(dims.X, dims.Y, dims.Z))
}

// InBounds reports whether pos lies in [0, dims) on every axis.
func (g *VoxelGrid) InBounds(pos voxel.Coord) bool {
	return pos.X >= 0 && pos.X < g.dims.X &&
		pos.Y >= 0 && pos.Y < g.dims.Y &&
		pos.Z >= 0 && pos.Z < g.dims.Z
}

// SetVoxel sets the occupancy of pos. Positions outside the grid are rejected with false.
func (g *VoxelGrid) SetVoxel(pos voxel.Coord, value bool) bool {
	if !g.InBounds(pos) {
		return false
	}
	return g.tree.SetVoxel(pos, value)
}

// GetVoxel reports whether pos is occupied.
func (g *VoxelGrid) GetVoxel(pos voxel.Coord) bool {
	if !g.InBounds(pos) {
		return false
	}
	return g.tree.GetVoxel(pos)
}

// HasVoxel is an alias of GetVoxel.
func (g *VoxelGrid) HasVoxel(pos voxel.Coord) bool {
	return g.GetVoxel(pos)
}

// WorldToGrid returns the cell containing the world point p.
func (g *VoxelGrid) WorldToGrid(p r3.Vector) voxel.Coord {
	size := g.VoxelSize()
	return voxel.Coord{X: utils.FloorInt(p.X / size), Y: utils.FloorInt(p.Y / size), Z: utils.FloorInt(p.Z / size)}
}

// GridToWorld returns the world position of the cell's minimum corner.
func (g *VoxelGrid) GridToWorld(pos voxel.Coord) r3.Vector {
	return pos.Vector(g.VoxelSize())
}

// SetVoxelAtWorldPos sets the cell containing the world point p.
func (g *VoxelGrid) SetVoxelAtWorldPos(p r3.Vector, value bool) bool {
	return g.SetVoxel(g.WorldToGrid(p), value)
}

// GetVoxelAtWorldPos reports whether the cell containing the world point p is occupied.
func (g *VoxelGrid) GetVoxelAtWorldPos(p r3.Vector) bool {
	return g.GetVoxel(g.WorldToGrid(p))
}

// Clear removes every voxel.
func (g *VoxelGrid) Clear() {
	g.tree.Clear()
}

// AllVoxels returns every occupied cell.
func (g *VoxelGrid) AllVoxels() []voxel.Coord {
	return g.tree.GetAllVoxels()
}

// VoxelsInRange returns the occupied cells in the inclusive box [lo, hi].
func (g *VoxelGrid) VoxelsInRange(lo, hi voxel.Coord) []voxel.Coord {
	hi = hi.Min(g.dims.Sub(voxel.Coord{X: 1, Y: 1, Z: 1}))
	return g.tree.VoxelsInRange(lo, hi)
}

// VoxelCount returns the number of occupied cells.
func (g *VoxelGrid) VoxelCount() int {
	return g.tree.VoxelCount()
}

// MemoryUsage returns the bytes held by the backing octree's nodes.
func (g *VoxelGrid) MemoryUsage() uint64 {
	return g.tree.GetMemoryUsage()
}

// Optimize collapses empty subtrees of the backing octree.
func (g *VoxelGrid) Optimize() int {
	return g.tree.Optimize()
}

// MemoryEfficiency is the number of occupied cells per allocated octree node.
func (g *VoxelGrid) MemoryEfficiency() float64 {
	if g.tree.NodeCount() == 0 {
		return 0
	}
	return float64(g.tree.VoxelCount()) / float64(g.tree.NodeCount())
}

// SpaceFillRatio is the fraction of grid cells that are occupied.
func (g *VoxelGrid) SpaceFillRatio() float64 {
	total := float64(g.dims.X) * float64(g.dims.Y) * float64(g.dims.Z)
	return float64(g.tree.VoxelCount()) / total
}

// Dimensions returns the number of cells per axis.
func (g *VoxelGrid) Dimensions() voxel.Coord {
	return g.dims
}

// VoxelSize returns the cell edge length in meters.
func (g *VoxelGrid) VoxelSize() float64 {
	return g.resolution.Size()
}

// Resolution returns the grid resolution.
func (g *VoxelGrid) Resolution() Resolution {
	return g.resolution
}

// WorkspaceSize returns the workspace extent in meters.
func (g *VoxelGrid) WorkspaceSize() r3.Vector {
	return g.workspace
}

// Octree returns the backing octree.
func (g *VoxelGrid) Octree() *octree.SparseOctree {
	return g.tree
}

// ResizeWorkspace changes the workspace extent. Shrinking fails if an occupied cell would fall
// outside the new grid. Growing past the octree's cube moves every voxel into a deeper tree
// allocated from the same pool; the grid is left unchanged if that fails.
func (g *VoxelGrid) ResizeWorkspace(workspace r3.Vector) error {
	if err := validateWorkspace(workspace); err != nil {
		return err
	}
	dims := calculateDimensions(g.resolution, workspace)
	voxels := g.tree.GetAllVoxels()
	for _, v := range voxels {
		if v.X >= dims.X || v.Y >= dims.Y || v.Z >= dims.Z {
			return errors.Errorf("resizing workspace to %v would drop voxel %v", workspace, v)
		}
	}

	if depth := depthFor(dims); depth > g.tree.MaxDepth() {
		tree, err := octree.New(depth, g.pool, g.logger)
		if err != nil {
			return err
		}
		for _, v := range voxels {
			if !tree.SetVoxel(v, true) {
				tree.Clear()
				return errors.Errorf("could not move voxel %v into an octree of depth %d", v, depth)
			}
		}
		g.tree.Clear()
		g.tree = tree
	}

	g.logger.Debugw("voxel grid resized", "workspace", workspace, "dims", dims, "depth", g.tree.MaxDepth())
	g.workspace = workspace
	g.dims = dims
	return nil
}
