package octree

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/voxel"
)

// Validate walks the whole tree and reports every structural problem it finds: nodes of the
// wrong type for their depth, internal nodes without children, leaves that are linked but empty,
// filled leaves whose stored position disagrees with their path, and counters that do not match
// the tree.
func (o *SparseOctree) Validate() error {
	var err error
	nodes, voxels := 0, 0

	if o.dropDetached(); o.root != nodepool.Nil {
		var rec func(h nodepool.Handle, origin voxel.Coord, side, depth int)
		rec = func(h nodepool.Handle, origin voxel.Coord, side, depth int) {
			n := o.pool.Get(h)
			if n == nil {
				err = multierr.Append(err, errors.Errorf("dangling handle %d at depth %d under %v", h, depth, origin))
				return
			}
			nodes++

			if depth < o.bounds.maxDepth {
				if n.nodeType != InternalNode {
					err = multierr.Append(err, errors.Errorf("%s node at depth %d under %v, want internal", n.nodeType, depth, origin))
					return
				}
				if n.childCount() == 0 {
					err = multierr.Append(err, errors.Errorf("internal node without children at depth %d under %v", depth, origin))
				}
				half := side / 2
				for oct, child := range n.children {
					if child != nodepool.Nil {
						rec(child, childOrigin(origin, oct, half), half, depth+1)
					}
				}
				return
			}

			switch n.nodeType {
			case LeafNodeFilled:
				voxels++
				if n.pos != origin {
					err = multierr.Append(err, errors.Errorf("leaf stores %v but its path leads to %v", n.pos, origin))
				}
			case LeafNodeEmpty:
				err = multierr.Append(err, errors.Errorf("empty leaf still linked at %v", origin))
			default:
				err = multierr.Append(err, errors.Errorf("%s node at leaf depth at %v", n.nodeType, origin))
			}
		}
		rec(o.root, voxel.Coord{}, o.bounds.Size(), 0)
	}

	if nodes != o.nodeCount {
		err = multierr.Append(err, errors.Errorf("node count is %d but the tree holds %d nodes", o.nodeCount, nodes))
	}
	if voxels != o.voxelCount {
		err = multierr.Append(err, errors.Errorf("voxel count is %d but the tree holds %d voxels", o.voxelCount, voxels))
	}
	return err
}
