package grid

import (
	"encoding/json"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/octree"
	"go.viam.com/voxel/voxel"
)

func newTestGrid(t *testing.T, res Resolution, workspace r3.Vector, opts ...nodepool.Option) (*VoxelGrid, *octree.Pool) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	pool := octree.NewPool(logger, opts...)
	test.That(t, pool.Init(256), test.ShouldBeNil)
	g, err := New(res, workspace, pool, logger)
	test.That(t, err, test.ShouldBeNil)
	return g, pool
}

func TestResolution(t *testing.T) {
	test.That(t, Resolutions(), test.ShouldHaveLength, 10)
	test.That(t, Size1cm.Size(), test.ShouldAlmostEqual, 0.01)
	test.That(t, Size32cm.Size(), test.ShouldAlmostEqual, 0.32)
	test.That(t, Size512cm.Size(), test.ShouldAlmostEqual, 5.12)
	test.That(t, Size64cm.String(), test.ShouldEqual, "64cm")
	test.That(t, resolutionCount.Valid(), test.ShouldBeFalse)

	for _, in := range []string{"32cm", "32", " 32CM "} {
		res, err := ParseResolution(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res, test.ShouldEqual, Size32cm)
	}
	_, err := ParseResolution("3cm")
	test.That(t, err, test.ShouldNotBeNil)

	t.Run("json", func(t *testing.T) {
		var doc struct {
			Resolution Resolution `json:"resolution"`
		}
		test.That(t, json.Unmarshal([]byte(`{"resolution": "8cm"}`), &doc), test.ShouldBeNil)
		test.That(t, doc.Resolution, test.ShouldEqual, Size8cm)

		out, err := json.Marshal(doc)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(out), test.ShouldEqual, `{"resolution":"8cm"}`)

		test.That(t, json.Unmarshal([]byte(`{"resolution": "huge"}`), &doc), test.ShouldNotBeNil)
	})
}

func TestNew(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pool := octree.NewPool(logger)

	_, err := New(resolutionCount, r3.Vector{X: 1, Y: 1, Z: 1}, pool, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(Size1cm, r3.Vector{X: 1, Y: 0, Z: 1}, pool, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(Size1cm, r3.Vector{X: 1, Y: 1, Z: 1}, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	t.Run("dimensions and depth", func(t *testing.T) {
		g, _ := newTestGrid(t, Size32cm, r3.Vector{X: 10, Y: 10, Z: 10})
		test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 31, Y: 31, Z: 31})
		test.That(t, g.Octree().MaxDepth(), test.ShouldEqual, 5)
		test.That(t, g.VoxelSize(), test.ShouldAlmostEqual, 0.32)
		test.That(t, g.Resolution(), test.ShouldEqual, Size32cm)
		test.That(t, g.WorkspaceSize(), test.ShouldResemble, r3.Vector{X: 10, Y: 10, Z: 10})
	})

	t.Run("workspace smaller than a voxel still has one cell", func(t *testing.T) {
		g, _ := newTestGrid(t, Size512cm, r3.Vector{X: 2, Y: 2, Z: 8})
		test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 1, Y: 1, Z: 1})
		test.That(t, g.Octree().MaxDepth(), test.ShouldEqual, 0)
		test.That(t, g.SetVoxel(voxel.Coord{}, true), test.ShouldBeTrue)
	})
}

func TestVoxelGridBounds(t *testing.T) {
	g, _ := newTestGrid(t, Size32cm, r3.Vector{X: 10, Y: 5, Z: 10})
	test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 31, Y: 15, Z: 31})

	// Inside the octree cube but outside the grid.
	test.That(t, g.SetVoxel(voxel.Coord{X: 31}, true), test.ShouldBeFalse)
	test.That(t, g.SetVoxel(voxel.Coord{Y: 15}, true), test.ShouldBeFalse)
	test.That(t, g.SetVoxel(voxel.Coord{X: -1}, true), test.ShouldBeFalse)
	test.That(t, g.GetVoxel(voxel.Coord{X: 31}), test.ShouldBeFalse)

	test.That(t, g.SetVoxel(voxel.Coord{X: 30, Y: 14, Z: 30}, true), test.ShouldBeTrue)
	test.That(t, g.HasVoxel(voxel.Coord{X: 30, Y: 14, Z: 30}), test.ShouldBeTrue)
	test.That(t, g.VoxelCount(), test.ShouldEqual, 1)
}

func TestVoxelGridOperations(t *testing.T) {
	g, pool := newTestGrid(t, Size32cm, r3.Vector{X: 10, Y: 10, Z: 10})
	voxels := []voxel.Coord{{X: 5, Y: 5, Z: 5}, {X: 6, Y: 5, Z: 5}, {X: 5, Y: 6, Z: 5}}
	for _, v := range voxels {
		test.That(t, g.SetVoxel(v, true), test.ShouldBeTrue)
	}

	t.Run("queries", func(t *testing.T) {
		test.That(t, g.AllVoxels(), test.ShouldHaveLength, 3)
		test.That(t, g.VoxelsInRange(voxel.Coord{X: 6}, voxel.Coord{X: 100, Y: 100, Z: 100}),
			test.ShouldResemble, []voxel.Coord{{X: 6, Y: 5, Z: 5}})
		test.That(t, g.MemoryUsage(), test.ShouldEqual, g.Octree().GetMemoryUsage())
		test.That(t, g.MemoryUsage(), test.ShouldBeGreaterThan, uint64(0))
		test.That(t, g.MemoryEfficiency(), test.ShouldBeGreaterThan, 0.0)
		test.That(t, g.SpaceFillRatio(), test.ShouldAlmostEqual, 3.0/(31*31*31))
		test.That(t, g.Optimize(), test.ShouldEqual, 0)
	})

	t.Run("world positions", func(t *testing.T) {
		test.That(t, g.WorldToGrid(r3.Vector{X: 1.7, Y: 1.61, Z: 1.9}), test.ShouldResemble, voxel.Coord{X: 5, Y: 5, Z: 5})
		test.That(t, g.GetVoxelAtWorldPos(r3.Vector{X: 2.0, Y: 1.7, Z: 1.7}), test.ShouldBeTrue)
		test.That(t, g.GetVoxelAtWorldPos(r3.Vector{X: -0.1}), test.ShouldBeFalse)
		test.That(t, g.SetVoxelAtWorldPos(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, true), test.ShouldBeTrue)
		test.That(t, g.GetVoxel(voxel.Coord{}), test.ShouldBeTrue)
		test.That(t, g.GridToWorld(voxel.Coord{X: 2}).X, test.ShouldAlmostEqual, 0.64)
		test.That(t, g.SetVoxel(voxel.Coord{}, false), test.ShouldBeTrue)
	})

	t.Run("clear", func(t *testing.T) {
		g.Clear()
		test.That(t, g.VoxelCount(), test.ShouldEqual, 0)
		test.That(t, g.MemoryUsage(), test.ShouldEqual, uint64(0))
		test.That(t, g.MemoryEfficiency(), test.ShouldEqual, 0.0)
		test.That(t, pool.Used(), test.ShouldEqual, 0)
	})
}

func TestResizeWorkspace(t *testing.T) {
	t.Run("shrinking that would drop voxels fails", func(t *testing.T) {
		g, _ := newTestGrid(t, Size1cm, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})
		test.That(t, g.SetVoxel(voxel.Coord{X: 8, Y: 1, Z: 1}, true), test.ShouldBeTrue)

		err := g.ResizeWorkspace(r3.Vector{X: 0.05, Y: 0.1, Z: 0.1})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 10, Y: 10, Z: 10})

		test.That(t, g.ResizeWorkspace(r3.Vector{X: -1, Y: 1, Z: 1}), test.ShouldNotBeNil)
	})

	t.Run("shrinking keeps the octree", func(t *testing.T) {
		g, _ := newTestGrid(t, Size1cm, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})
		test.That(t, g.SetVoxel(voxel.Coord{X: 1, Y: 1, Z: 1}, true), test.ShouldBeTrue)
		tree := g.Octree()

		test.That(t, g.ResizeWorkspace(r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}), test.ShouldBeNil)
		test.That(t, g.Octree(), test.ShouldEqual, tree)
		test.That(t, g.SetVoxel(voxel.Coord{X: 6}, true), test.ShouldBeFalse)
		test.That(t, g.GetVoxel(voxel.Coord{X: 1, Y: 1, Z: 1}), test.ShouldBeTrue)
	})

	t.Run("growing rebuilds a deeper octree", func(t *testing.T) {
		g, pool := newTestGrid(t, Size1cm, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})
		test.That(t, g.Octree().MaxDepth(), test.ShouldEqual, 4)
		test.That(t, g.SetVoxel(voxel.Coord{X: 9, Y: 9, Z: 9}, true), test.ShouldBeTrue)
		test.That(t, g.SetVoxel(voxel.Coord{X: 3, Y: 0, Z: 2}, true), test.ShouldBeTrue)

		test.That(t, g.ResizeWorkspace(r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldBeNil)
		test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 100, Y: 100, Z: 100})
		test.That(t, g.Octree().MaxDepth(), test.ShouldEqual, 7)
		test.That(t, g.VoxelCount(), test.ShouldEqual, 2)
		test.That(t, g.GetVoxel(voxel.Coord{X: 9, Y: 9, Z: 9}), test.ShouldBeTrue)
		test.That(t, g.SetVoxel(voxel.Coord{X: 99, Y: 99, Z: 99}, true), test.ShouldBeTrue)
		test.That(t, g.Octree().Validate(), test.ShouldBeNil)
		test.That(t, pool.Used(), test.ShouldEqual, g.Octree().NodeCount())
	})

	t.Run("failed rebuild leaves the grid unchanged", func(t *testing.T) {
		g, pool := newTestGrid(t, Size1cm, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, nodepool.WithMaxSlots(12))
		test.That(t, g.SetVoxel(voxel.Coord{X: 9, Y: 9, Z: 9}, true), test.ShouldBeTrue)
		used := pool.Used()

		test.That(t, g.ResizeWorkspace(r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldNotBeNil)
		test.That(t, g.Dimensions(), test.ShouldResemble, voxel.Coord{X: 10, Y: 10, Z: 10})
		test.That(t, g.GetVoxel(voxel.Coord{X: 9, Y: 9, Z: 9}), test.ShouldBeTrue)
		test.That(t, pool.Used(), test.ShouldEqual, used)
	})
}
