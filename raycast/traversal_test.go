package raycast

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxel/voxel"
)

func TestNewGridTraversal(t *testing.T) {
	dims := voxel.Coord{X: 4, Y: 4, Z: 4}

	t.Run("origin inside", func(t *testing.T) {
		walk, ok := newGridTraversal(r3.Vector{X: 1.5, Y: 2.25, Z: 3.75}, r3.Vector{X: 1}, dims)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, walk.entryAxis, test.ShouldEqual, insideAxis)
		test.That(t, walk.t, test.ShouldEqual, 0.0)
		test.That(t, walk.cell, test.ShouldResemble, [3]int{1, 2, 3})
		test.That(t, walk.step, test.ShouldResemble, [3]int{1, 0, 0})
		test.That(t, walk.tMax[0], test.ShouldAlmostEqual, 0.5)
		test.That(t, math.IsInf(walk.tMax[1], 1), test.ShouldBeTrue)
		test.That(t, walk.tExit, test.ShouldAlmostEqual, 2.5)
	})

	t.Run("origin outside is moved to the entry point", func(t *testing.T) {
		walk, ok := newGridTraversal(r3.Vector{X: 2.5, Y: 6, Z: 0.5}, r3.Vector{Y: -1}, dims)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, walk.entryAxis, test.ShouldEqual, 1)
		test.That(t, walk.t, test.ShouldAlmostEqual, 2.0)
		test.That(t, walk.cell, test.ShouldResemble, [3]int{2, 3, 0})
		test.That(t, walk.step, test.ShouldResemble, [3]int{0, -1, 0})
		test.That(t, walk.tMax[1], test.ShouldAlmostEqual, 3.0)
		test.That(t, walk.point().Y, test.ShouldAlmostEqual, 4.0)
	})

	t.Run("misses", func(t *testing.T) {
		// Pointing away.
		_, ok := newGridTraversal(r3.Vector{X: -1, Y: 1, Z: 1}, r3.Vector{X: -1}, dims)
		test.That(t, ok, test.ShouldBeFalse)
		// Parallel to the grid outside of it.
		_, ok = newGridTraversal(r3.Vector{X: 1, Y: 5, Z: 1}, r3.Vector{X: 1}, dims)
		test.That(t, ok, test.ShouldBeFalse)
		// Passing beside the grid.
		_, ok = newGridTraversal(r3.Vector{X: -1, Y: -1, Z: 10}, r3.Vector{X: 1, Y: 1}.Normalize(), dims)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestTraversalTieBreak(t *testing.T) {
	dims := voxel.Coord{X: 4, Y: 4, Z: 4}
	walk, ok := newGridTraversal(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vector{X: 1, Y: 1, Z: 1}.Normalize(), dims)
	test.That(t, ok, test.ShouldBeTrue)

	var visited []voxel.Coord
	visited = append(visited, coordOf(walk.cell))
	for i := 0; i < 3 && walk.advance(); i++ {
		visited = append(visited, coordOf(walk.cell))
	}
	test.That(t, visited, test.ShouldResemble, []voxel.Coord{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 1},
	})
}

func TestTraversalLeavesGrid(t *testing.T) {
	walk, ok := newGridTraversal(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vector{X: -1}, voxel.Coord{X: 2, Y: 2, Z: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, walk.advance(), test.ShouldBeFalse)
}

func TestTraversalFace(t *testing.T) {
	dims := voxel.Coord{X: 4, Y: 4, Z: 4}

	walk, ok := newGridTraversal(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5}, r3.Vector{Z: -1}, dims)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, walk.face(), test.ShouldEqual, voxel.NegativeZ)
	test.That(t, walk.advance(), test.ShouldBeTrue)
	test.That(t, walk.face(), test.ShouldEqual, voxel.PositiveZ)
}
