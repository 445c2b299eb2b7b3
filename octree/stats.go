package octree

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"go.viam.com/voxel/voxel"
)

// Stats summarizes the shape of an octree.
type Stats struct {
	MaxDepth    int
	NodeCount   int
	VoxelCount  int
	MemoryUsage uint64
	// NodesPerDepth[d] is the number of nodes at depth d.
	NodesPerDepth []int
	// MeanBranching and MaxBranching describe the child counts of internal nodes.
	MeanBranching float64
	MaxBranching  float64
	// MemoryEfficiency is voxels per node. Every voxel owns a leaf, so it never exceeds 1.
	MemoryEfficiency float64
}

// Stats walks the tree and summarizes it.
func (o *SparseOctree) Stats() Stats {
	o.dropDetached()
	s := Stats{
		MaxDepth:      o.bounds.maxDepth,
		NodeCount:     o.nodeCount,
		VoxelCount:    o.voxelCount,
		MemoryUsage:   o.GetMemoryUsage(),
		NodesPerDepth: make([]int, o.bounds.maxDepth+1),
	}

	var branching stats.Float64Data
	o.walk(func(n *Node, _ voxel.Coord, _, depth int) bool {
		s.NodesPerDepth[depth]++
		if n.nodeType == InternalNode {
			branching = append(branching, float64(n.childCount()))
		}
		return true
	})

	if len(branching) > 0 {
		// Neither call can fail on non-empty input.
		s.MeanBranching, _ = stats.Mean(branching)
		s.MaxBranching, _ = stats.Max(branching)
	}
	if s.NodeCount > 0 {
		s.MemoryEfficiency = float64(s.VoxelCount) / float64(s.NodeCount)
	}
	return s
}

// String renders the stats as a table.
func (s Stats) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Max depth", s.MaxDepth})
	t.AppendRow(table.Row{"Nodes", s.NodeCount})
	t.AppendRow(table.Row{"Voxels", s.VoxelCount})
	t.AppendRow(table.Row{"Memory (bytes)", s.MemoryUsage})
	t.AppendRow(table.Row{"Mean branching", fmt.Sprintf("%.2f", s.MeanBranching)})
	t.AppendRow(table.Row{"Max branching", fmt.Sprintf("%.0f", s.MaxBranching)})
	t.AppendRow(table.Row{"Voxels per node", fmt.Sprintf("%.3f", s.MemoryEfficiency)})
	for depth, count := range s.NodesPerDepth {
		t.AppendRow(table.Row{fmt.Sprintf("Nodes at depth %d", depth), count})
	}
	return t.Render()
}
