package octree

import (
	"unsafe"

	"github.com/pkg/errors"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/voxel"
)

// SparseOctree stores boolean occupancy for the cells of [0, 2^maxDepth)^3. Every insert, remove
// and query walks exactly maxDepth levels. It is not safe for concurrent use, and neither is a
// pool shared between trees.
type SparseOctree struct {
	logger     logging.Logger
	pool       *Pool
	bounds     Bounds
	root       nodepool.Handle
	generation uint64
	nodeCount  int
	voxelCount int
}

// New creates an empty octree that allocates its nodes from pool. The pool must be initialized
// before the first insert.
func New(maxDepth int, pool *Pool, logger logging.Logger) (*SparseOctree, error) {
	if pool == nil {
		return nil, errors.New("octree requires a node pool")
	}
	bounds, err := NewBounds(maxDepth)
	if err != nil {
		return nil, err
	}

	return &SparseOctree{
		logger: logger,
		pool:   pool,
		bounds: bounds,
	}, nil
}

// SetVoxel marks pos occupied or empty and reports whether the tree now reflects the request.
// It returns false without mutation when pos is out of bounds, when removing a voxel that is not
// set, or when the pool cannot supply the nodes an insert needs.
func (o *SparseOctree) SetVoxel(pos voxel.Coord, value bool) bool {
	cell, err := o.bounds.Cell(pos)
	if err != nil {
		return false
	}
	if value {
		return o.insert(cell)
	}
	return o.remove(cell)
}

func (o *SparseOctree) insert(cell Cell) bool {
	o.dropDetached()
	pos := cell.Coord()

	// Everything allocated by this call, in path order, so a failed allocation can be undone.
	var allocated [MaxDepthLimit + 1]nodepool.Handle
	numAllocated := 0
	var linkParent nodepool.Handle
	linkOctant := 0

	fail := func(err error) bool {
		if numAllocated > 0 {
			if linkParent == nodepool.Nil {
				o.root = nodepool.Nil
			} else {
				o.pool.Get(linkParent).children[linkOctant] = nodepool.Nil
			}
			for i := numAllocated - 1; i >= 0; i-- {
				o.freeNode(allocated[i])
			}
		}
		o.logger.Debugw("voxel insert rolled back", "pos", pos, "released", numAllocated, "error", err)
		return false
	}

	if o.root == nodepool.Nil {
		h, err := o.allocateNode(o.leafOrInternal(0))
		if err != nil {
			return fail(err)
		}
		o.root = h
		o.generation = o.pool.Generation()
		allocated[numAllocated] = h
		numAllocated++
	}

	h := o.root
	origin := voxel.Coord{}
	side := o.bounds.Size()
	for depth := 0; depth < o.bounds.maxDepth; depth++ {
		half := side / 2
		oct := octant(pos, origin, half)
		n := o.pool.Get(h)
		child := n.children[oct]
		if child == nodepool.Nil {
			var err error
			child, err = o.allocateNode(o.leafOrInternal(depth + 1))
			if err != nil {
				return fail(err)
			}
			n.children[oct] = child
			if numAllocated == 0 {
				linkParent, linkOctant = h, oct
			}
			allocated[numAllocated] = child
			numAllocated++
		}
		h = child
		origin = childOrigin(origin, oct, half)
		side = half
	}

	leaf := o.pool.Get(h)
	if leaf.nodeType == LeafNodeFilled {
		return true
	}
	leaf.nodeType = LeafNodeFilled
	leaf.pos = pos
	o.voxelCount++
	return true
}

func (o *SparseOctree) remove(cell Cell) bool {
	if o.dropDetached(); o.root == nodepool.Nil {
		return false
	}
	pos := cell.Coord()
	maxDepth := o.bounds.maxDepth

	var path [MaxDepthLimit + 1]nodepool.Handle
	var octants [MaxDepthLimit]int

	h := o.root
	origin := voxel.Coord{}
	side := o.bounds.Size()
	for depth := 0; depth < maxDepth; depth++ {
		path[depth] = h
		half := side / 2
		oct := octant(pos, origin, half)
		child := o.pool.Get(h).children[oct]
		if child == nodepool.Nil {
			return false
		}
		octants[depth] = oct
		h = child
		origin = childOrigin(origin, oct, half)
		side = half
	}
	path[maxDepth] = h

	leaf := o.pool.Get(h)
	if leaf.nodeType != LeafNodeFilled {
		return false
	}
	leaf.nodeType = LeafNodeEmpty
	leaf.pos = voxel.Coord{}
	o.voxelCount--

	for depth := maxDepth; depth >= 0; depth-- {
		if !o.pool.Get(path[depth]).isEmpty() {
			break
		}
		o.freeNode(path[depth])
		if depth == 0 {
			o.root = nodepool.Nil
		} else {
			o.pool.Get(path[depth-1]).children[octants[depth-1]] = nodepool.Nil
		}
	}
	return true
}

// GetVoxel reports whether pos is occupied. Out of bounds positions are never occupied.
func (o *SparseOctree) GetVoxel(pos voxel.Coord) bool {
	cell, err := o.bounds.Cell(pos)
	if err != nil {
		return false
	}
	h := o.find(cell)
	return h != nodepool.Nil && o.pool.Get(h).nodeType == LeafNodeFilled
}

// HasVoxel is an alias of GetVoxel.
func (o *SparseOctree) HasVoxel(pos voxel.Coord) bool {
	return o.GetVoxel(pos)
}

// find returns the leaf for cell, or Nil as soon as a node on the path is missing.
func (o *SparseOctree) find(cell Cell) nodepool.Handle {
	o.dropDetached()
	pos := cell.Coord()
	h := o.root
	origin := voxel.Coord{}
	side := o.bounds.Size()
	for depth := 0; depth < o.bounds.maxDepth && h != nodepool.Nil; depth++ {
		half := side / 2
		oct := octant(pos, origin, half)
		h = o.pool.Get(h).children[oct]
		origin = childOrigin(origin, oct, half)
		side = half
	}
	return h
}

// Clear returns every node to the pool.
func (o *SparseOctree) Clear() {
	o.dropDetached()
	if o.root != nodepool.Nil {
		o.freeSubtree(o.root)
	}
	if o.nodeCount != 0 || o.voxelCount != 0 {
		o.logger.Warnw("octree counters out of sync after clear", "nodes", o.nodeCount, "voxels", o.voxelCount)
	}
	o.root = nodepool.Nil
	o.nodeCount = 0
	o.voxelCount = 0
}

// GetAllVoxels returns every occupied position in octant traversal order.
func (o *SparseOctree) GetAllVoxels() []voxel.Coord {
	voxels := make([]voxel.Coord, 0, o.voxelCount)
	o.walk(func(n *Node, _ voxel.Coord, _, _ int) bool {
		if n.nodeType == LeafNodeFilled {
			voxels = append(voxels, n.pos)
		}
		return true
	})
	return voxels
}

// VoxelsInRange returns the occupied positions inside the inclusive box [lo, hi], skipping every
// subtree whose extent misses the box.
func (o *SparseOctree) VoxelsInRange(lo, hi voxel.Coord) []voxel.Coord {
	size := o.bounds.Size()
	lo = lo.Max(voxel.Coord{})
	hi = hi.Min(voxel.Coord{X: size - 1, Y: size - 1, Z: size - 1})
	if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
		return nil
	}

	var voxels []voxel.Coord
	o.walk(func(n *Node, origin voxel.Coord, side, _ int) bool {
		if !overlaps(origin, side, lo, hi) {
			return false
		}
		if n.nodeType == LeafNodeFilled {
			voxels = append(voxels, n.pos)
		}
		return true
	})
	return voxels
}

// walk visits nodes depth first in octant order. visit receives the node, its minimum corner, its
// side length and its depth, and returns false to skip the node's children.
func (o *SparseOctree) walk(visit func(n *Node, origin voxel.Coord, side, depth int) bool) {
	if o.dropDetached(); o.root == nodepool.Nil {
		return
	}
	var rec func(h nodepool.Handle, origin voxel.Coord, side, depth int)
	rec = func(h nodepool.Handle, origin voxel.Coord, side, depth int) {
		n := o.pool.Get(h)
		if n == nil || !visit(n, origin, side, depth) {
			return
		}
		half := side / 2
		for oct, child := range n.children {
			if child != nodepool.Nil {
				rec(child, childOrigin(origin, oct, half), half, depth+1)
			}
		}
	}
	rec(o.root, voxel.Coord{}, o.bounds.Size(), 0)
}

// Optimize collapses every empty subtree that is still linked and returns the number of nodes
// released. Removal already collapses eagerly, so on a consistent tree this releases nothing.
func (o *SparseOctree) Optimize() int {
	if o.dropDetached(); o.root == nodepool.Nil {
		return 0
	}
	before := o.nodeCount
	if o.collapse(o.root) {
		o.freeNode(o.root)
		o.root = nodepool.Nil
	}
	released := before - o.nodeCount
	if released > 0 {
		o.logger.Debugw("octree optimized", "released", released)
	}
	return released
}

// collapse frees the empty descendants of h and reports whether h itself is now empty.
func (o *SparseOctree) collapse(h nodepool.Handle) bool {
	n := o.pool.Get(h)
	if n.nodeType == InternalNode {
		for i, child := range n.children {
			if child != nodepool.Nil && o.collapse(child) {
				o.freeNode(child)
				n.children[i] = nodepool.Nil
			}
		}
	}
	return n.isEmpty()
}

// GetMemoryUsage returns the bytes held by this tree's nodes.
func (o *SparseOctree) GetMemoryUsage() uint64 {
	o.dropDetached()
	return uint64(o.nodeCount) * uint64(unsafe.Sizeof(Node{}))
}

// NodeCount returns the number of allocated nodes.
func (o *SparseOctree) NodeCount() int {
	o.dropDetached()
	return o.nodeCount
}

// VoxelCount returns the number of occupied voxels.
func (o *SparseOctree) VoxelCount() int {
	o.dropDetached()
	return o.voxelCount
}

// MaxDepth returns the number of levels below the root.
func (o *SparseOctree) MaxDepth() int {
	return o.bounds.maxDepth
}

// Size returns the side length of the addressable cube in cells.
func (o *SparseOctree) Size() int {
	return o.bounds.Size()
}

// Bounds returns the addressable cube.
func (o *SparseOctree) Bounds() Bounds {
	return o.bounds
}
