package raycast

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/voxel/utils"
	"go.viam.com/voxel/voxel"
)

// insideAxis marks a traversal whose origin was already inside the grid, so the current cell
// was not entered through any face.
const insideAxis = -1

// gridTraversal is the state of one DDA walk in unit-voxel space, where t counts cell widths
// along the ray.
type gridTraversal struct {
	origin    [3]float64
	dir       [3]float64
	dims      [3]int
	cell      [3]int
	step      [3]int
	tMax      [3]float64
	tDelta    [3]float64
	t         float64
	tExit     float64
	entryAxis int
}

func components(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func coordOf(c [3]int) voxel.Coord {
	return voxel.Coord{X: c[0], Y: c[1], Z: c[2]}
}

// newGridTraversal clips the ray against the box [0, dims] and positions the walk at the first
// cell the ray occupies inside it. It returns false when the ray never enters the box.
func newGridTraversal(origin, dir r3.Vector, dims voxel.Coord) (*gridTraversal, bool) {
	g := &gridTraversal{
		origin: components(origin),
		dir:    components(dir),
		dims:   [3]int{dims.X, dims.Y, dims.Z},
	}

	tEnter, tExit := math.Inf(-1), math.Inf(1)
	entryAxis := insideAxis
	for axis := 0; axis < 3; axis++ {
		o, d, extent := g.origin[axis], g.dir[axis], float64(g.dims[axis])
		if math.Abs(d) < utils.Epsilon {
			if o < 0 || o > extent {
				return nil, false
			}
			continue
		}
		near, far := (0-o)/d, (extent-o)/d
		if near > far {
			near, far = far, near
		}
		// Strict comparison keeps the lower axis on ties.
		if near > tEnter {
			tEnter, entryAxis = near, axis
		}
		tExit = math.Min(tExit, far)
	}
	if tEnter > tExit || tExit < 0 {
		return nil, false
	}
	if tEnter < 0 {
		tEnter = 0
		entryAxis = insideAxis
	}
	g.t = tEnter
	g.tExit = tExit
	g.entryAxis = entryAxis

	for axis := 0; axis < 3; axis++ {
		o, d := g.origin[axis], g.dir[axis]
		g.cell[axis] = utils.ClampInt(utils.FloorInt(o+d*tEnter), 0, g.dims[axis]-1)
		switch utils.Sign(d, utils.Epsilon) {
		case 1:
			g.step[axis] = 1
			g.tMax[axis] = (float64(g.cell[axis]+1) - o) / d
			g.tDelta[axis] = 1 / d
		case -1:
			g.step[axis] = -1
			g.tMax[axis] = (float64(g.cell[axis]) - o) / d
			g.tDelta[axis] = -1 / d
		default:
			g.tMax[axis] = math.Inf(1)
			g.tDelta[axis] = math.Inf(1)
		}
	}
	return g, true
}

// nextAxis is the axis whose cell boundary the ray crosses first, X before Y before Z on ties.
func (g *gridTraversal) nextAxis() int {
	axis := 0
	for i := 1; i < 3; i++ {
		if g.tMax[i] < g.tMax[axis] {
			axis = i
		}
	}
	return axis
}

// advance moves into the next cell. It returns false once the ray leaves the grid.
func (g *gridTraversal) advance() bool {
	axis := g.nextAxis()
	if math.IsInf(g.tMax[axis], 1) || g.tMax[axis] > g.tExit {
		return false
	}
	g.t = g.tMax[axis]
	g.cell[axis] += g.step[axis]
	if g.cell[axis] < 0 || g.cell[axis] >= g.dims[axis] {
		return false
	}
	g.tMax[axis] += g.tDelta[axis]
	g.entryAxis = axis
	return true
}

// face is the face of the current cell the ray crossed to get here. A cell the ray started in
// reports the face it leaves through instead.
func (g *gridTraversal) face() voxel.FaceDirection {
	if g.entryAxis == insideAxis {
		axis := g.nextAxis()
		return voxel.FaceFromAxis(axis, g.step[axis] > 0)
	}
	return voxel.FaceFromAxis(g.entryAxis, g.step[g.entryAxis] < 0)
}

// point is the current position along the ray in unit-voxel space.
func (g *gridTraversal) point() r3.Vector {
	return r3.Vector{
		X: g.origin[0] + g.dir[0]*g.t,
		Y: g.origin[1] + g.dir[1]*g.t,
		Z: g.origin[2] + g.dir[2]*g.t,
	}
}
