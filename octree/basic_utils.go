package octree

import (
	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/voxel"
)

// octant returns the child index of p inside the node whose minimum corner is origin and whose
// children have side length half.
func octant(p, origin voxel.Coord, half int) int {
	code := 0
	if p.X >= origin.X+half {
		code |= 1
	}
	if p.Y >= origin.Y+half {
		code |= 2
	}
	if p.Z >= origin.Z+half {
		code |= 4
	}
	return code
}

// childOrigin returns the minimum corner of child oct of the node at origin.
func childOrigin(origin voxel.Coord, oct, half int) voxel.Coord {
	if oct&1 != 0 {
		origin.X += half
	}
	if oct&2 != 0 {
		origin.Y += half
	}
	if oct&4 != 0 {
		origin.Z += half
	}
	return origin
}

// overlaps reports whether the cube [origin, origin+side) intersects the inclusive box [lo, hi].
func overlaps(origin voxel.Coord, side int, lo, hi voxel.Coord) bool {
	return origin.X <= hi.X && origin.X+side > lo.X &&
		origin.Y <= hi.Y && origin.Y+side > lo.Y &&
		origin.Z <= hi.Z && origin.Z+side > lo.Z
}

// isEmpty reports whether the node holds nothing: a leaf without a voxel or an internal node
// without children.
func (n *Node) isEmpty() bool {
	switch n.nodeType {
	case LeafNodeFilled:
		return false
	case LeafNodeEmpty:
		return true
	default:
		for _, child := range n.children {
			if child != nodepool.Nil {
				return false
			}
		}
		return true
	}
}

// childCount returns the number of non-nil children.
func (n *Node) childCount() int {
	count := 0
	for _, child := range n.children {
		if child != nodepool.Nil {
			count++
		}
	}
	return count
}

// dropDetached forgets the tree when its pool was shut down, or shut down and initialized again,
// since the nodes were allocated. Those handles no longer refer to this tree's nodes.
func (o *SparseOctree) dropDetached() {
	if o.root == nodepool.Nil {
		return
	}
	if o.pool.Initialized() && o.pool.Generation() == o.generation {
		return
	}
	o.logger.Warnw("octree nodes were released by a pool shutdown", "nodes", o.nodeCount, "voxels", o.voxelCount)
	o.root = nodepool.Nil
	o.nodeCount = 0
	o.voxelCount = 0
}

// allocateNode takes a fresh node from the pool.
func (o *SparseOctree) allocateNode(nodeType NodeType) (nodepool.Handle, error) {
	h, err := o.pool.Allocate()
	if err != nil {
		return nodepool.Nil, err
	}
	o.pool.Get(h).nodeType = nodeType
	o.nodeCount++
	return h, nil
}

// freeNode returns a single node to the pool. The caller unlinks it from its parent.
func (o *SparseOctree) freeNode(h nodepool.Handle) {
	if err := o.pool.Deallocate(h); err != nil {
		o.logger.Warnw("failed to return octree node to pool", "handle", h, "error", err)
		return
	}
	o.nodeCount--
}

// freeSubtree returns h and all of its descendants to the pool, children first.
func (o *SparseOctree) freeSubtree(h nodepool.Handle) {
	n := o.pool.Get(h)
	if n == nil {
		return
	}
	for i, child := range n.children {
		if child != nodepool.Nil {
			o.freeSubtree(child)
			n.children[i] = nodepool.Nil
		}
	}
	if n.nodeType == LeafNodeFilled {
		o.voxelCount--
	}
	o.freeNode(h)
}

// leafOrInternal returns the type a freshly allocated node at depth needs.
func (o *SparseOctree) leafOrInternal(depth int) NodeType {
	if depth == o.bounds.maxDepth {
		return LeafNodeEmpty
	}
	return InternalNode
}
