// Package octree implements a sparse voxel octree. The tree addresses the cube [0, 2^maxDepth) on
// every axis and allocates nodes only along the paths to occupied voxels, so memory scales with
// the number of occupied cells rather than with the addressable volume. Nodes live in a
// nodepool.Pool and parents link to children by handle.
package octree

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/voxel"
)

// Each node in the octree is either an internal node which links to up to eight children, an empty
// leaf or a filled leaf holding the position of one occupied voxel.
const (
	InternalNode = NodeType(iota)
	LeafNodeEmpty
	LeafNodeFilled
)

const (
	// DefaultMaxDepth addresses a 1024^3 cube.
	DefaultMaxDepth = 10
	// MaxDepthLimit is the deepest tree supported.
	MaxDepthLimit = 30
)

// ErrOutOfBounds is returned when a coordinate lies outside the addressable cube.
var ErrOutOfBounds = errors.New("coordinate out of octree bounds")

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

func (t NodeType) String() string {
	switch t {
	case InternalNode:
		return "internal"
	case LeafNodeEmpty:
		return "empty leaf"
	case LeafNodeFilled:
		return "filled leaf"
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// Node is one octree node as stored in the pool. Children are indexed by octant code: bit0 is set
// for X >= center, bit1 for Y >= center and bit2 for Z >= center.
type Node struct {
	nodeType NodeType
	children [8]nodepool.Handle
	// pos is the coordinate stored by a filled leaf. It repeats what the path from the root
	// encodes and Validate checks the two agree.
	pos voxel.Coord
}

// Type returns the node's type.
func (n *Node) Type() NodeType {
	return n.nodeType
}

// Pool is the node pool an octree allocates from.
type Pool = nodepool.Pool[Node]

// NewPool returns an uninitialized node pool for octrees.
func NewPool(logger logging.Logger, opts ...nodepool.Option) *Pool {
	return nodepool.New[Node](logger, opts...)
}

// Bounds describes the addressable cube [0, 2^maxDepth) of an octree.
type Bounds struct {
	maxDepth int
}

// NewBounds returns the bounds of a tree with the given depth.
func NewBounds(maxDepth int) (Bounds, error) {
	if maxDepth < 0 || maxDepth > MaxDepthLimit {
		return Bounds{}, errors.Errorf("invalid octree depth %d, must be in [0, %d]", maxDepth, MaxDepthLimit)
	}
	return Bounds{maxDepth: maxDepth}, nil
}

// MaxDepth is the number of levels below the root.
func (b Bounds) MaxDepth() int {
	return b.maxDepth
}

// Size is the side length of the cube in cells.
func (b Bounds) Size() int {
	return 1 << b.maxDepth
}

// Contains reports whether every component of c lies in [0, Size).
func (b Bounds) Contains(c voxel.Coord) bool {
	size := b.Size()
	return c.X >= 0 && c.X < size &&
		c.Y >= 0 && c.Y < size &&
		c.Z >= 0 && c.Z < size
}

// Cell checks c against the bounds.
func (b Bounds) Cell(c voxel.Coord) (Cell, error) {
	if !b.Contains(c) {
		return Cell{}, errors.Wrapf(ErrOutOfBounds, "%v not in [0, %d)", c, b.Size())
	}
	return Cell{c}, nil
}

// Cell is a coordinate that has been checked against a Bounds. Every walk through the tree takes a
// Cell, so unchecked coordinates cannot reach one.
type Cell struct {
	c voxel.Coord
}

// Coord returns the underlying coordinate.
func (c Cell) Coord() voxel.Coord {
	return c.c
}
