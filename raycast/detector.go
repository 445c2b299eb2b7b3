package raycast

import (
	"slices"

	"github.com/samber/lo"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/utils"
	"go.viam.com/voxel/voxel"
)

// DefaultMaxRayDistance is how far, in world units, a Detector traces before giving up.
const DefaultMaxRayDistance = 1000.0

// Option configures a Detector.
type Option func(*Detector)

// WithMaxRayDistance sets the distance budget of every trace.
func WithMaxRayDistance(distance float64) Option {
	return func(d *Detector) {
		d.maxRayDistance = distance
	}
}

// Detector finds voxel and ground plane faces hit by rays. It holds no per-query state, and
// grids are only read for the duration of a call.
type Detector struct {
	logger         logging.Logger
	maxRayDistance float64
}

// NewDetector returns a detector with DefaultMaxRayDistance unless overridden.
func NewDetector(logger logging.Logger, opts ...Option) *Detector {
	d := &Detector{logger: logger, maxRayDistance: DefaultMaxRayDistance}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetMaxRayDistance changes the distance budget of subsequent traces.
func (d *Detector) SetMaxRayDistance(distance float64) {
	d.maxRayDistance = distance
}

// MaxRayDistance returns the distance budget in world units.
func (d *Detector) MaxRayDistance() float64 {
	return d.maxRayDistance
}

// DetectFace returns the face of the first occupied voxel the ray enters, or an invalid Face.
func (d *Detector) DetectFace(ray Ray, grid Grid) Face {
	return d.RaycastGrid(ray, grid).Face
}

// RaycastGrid walks the cells the ray passes through in order and stops at the first occupied
// one. The face reported is the one the ray crossed to enter that cell. If the ray starts inside
// an occupied cell, that cell is hit at distance zero and the face is the one the ray would
// leave through.
func (d *Detector) RaycastGrid(ray Ray, grid Grid) RaycastHit {
	if grid == nil {
		return missedHit()
	}
	size := grid.VoxelSize()
	dims := grid.Dimensions()
	if size <= 0 || dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		d.logger.Debugw("raycast against degenerate grid", "voxel_size", size, "dims", dims)
		return missedHit()
	}
	dir := ray.Direction.Normalize()
	if dir.Norm2() == 0 {
		return missedHit()
	}

	maxT := d.maxRayDistance / size
	walk, ok := newGridTraversal(ray.Origin.Mul(1/size), dir, dims)
	if !ok {
		return missedHit()
	}

	for walk.t <= maxT {
		cell := coordOf(walk.cell)
		if grid.GetVoxel(cell) {
			face := NewFace(cell, walk.face())
			return newHit(face, walk.t*size, walk.point().Mul(size))
		}
		if !walk.advance() {
			break
		}
	}
	return missedHit()
}

// DetectGroundPlane intersects the ray with the plane Y=0. Only rays travelling downward from at
// or above the plane, and reaching it within the distance budget, hit it.
func (d *Detector) DetectGroundPlane(ray Ray) Face {
	dir := ray.Direction.Normalize()
	if dir.Y > -utils.Epsilon {
		return Face{}
	}
	t := -ray.Origin.Y / dir.Y
	if t < 0 || t > d.maxRayDistance {
		return Face{}
	}
	return NewGroundFace(ray.Origin.Add(dir.Mul(t)))
}

// DetectFaceOrGround prefers any voxel face over the ground plane, even when the ground plane is
// nearer along the ray.
func (d *Detector) DetectFaceOrGround(ray Ray, grid Grid) Face {
	if face := d.DetectFace(ray, grid); face.IsValid() {
		return face
	}
	return d.DetectGroundPlane(ray)
}

// DetectFacesInRegion lists the exposed faces of every occupied voxel overlapping box. A face is
// exposed when the cell on its far side is empty. Voxels are visited in Z, Y, X order and faces in
// FaceDirection order.
func (d *Detector) DetectFacesInRegion(box voxel.Box, grid Grid) []Face {
	if grid == nil || grid.VoxelSize() <= 0 {
		return nil
	}
	dims := grid.Dimensions()
	minCell, maxCell := box.CellRange(grid.VoxelSize())
	minCell = minCell.Max(voxel.Coord{})
	maxCell = maxCell.Min(dims.Sub(voxel.Coord{X: 1, Y: 1, Z: 1}))
	if minCell.X > maxCell.X || minCell.Y > maxCell.Y || minCell.Z > maxCell.Z {
		return nil
	}

	occupied := occupiedCells(grid, minCell, maxCell)
	slices.SortFunc(occupied, compareZYX)

	return lo.FlatMap(occupied, func(pos voxel.Coord, _ int) []Face {
		faces := lo.Map(voxel.AllFaceDirections[:], func(dir voxel.FaceDirection, _ int) Face {
			return NewFace(pos, dir)
		})
		return lo.Filter(faces, func(face Face, _ int) bool {
			return d.IsValidFaceForPlacement(face, grid)
		})
	})
}

// IsValidFaceForPlacement reports whether a voxel could be placed against the face, which is the
// case when the target cell is empty.
func (d *Detector) IsValidFaceForPlacement(face Face, grid Grid) bool {
	if !face.IsValid() {
		return false
	}
	if face.IsGroundPlane() {
		return !grid.GetVoxel(face.GroundCell(grid.VoxelSize()))
	}
	return !grid.GetVoxel(face.PlacementPosition())
}

func occupiedCells(grid Grid, minCell, maxCell voxel.Coord) []voxel.Coord {
	if rq, ok := grid.(RangeQuerier); ok {
		return rq.VoxelsInRange(minCell, maxCell)
	}
	var occupied []voxel.Coord
	for z := minCell.Z; z <= maxCell.Z; z++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for x := minCell.X; x <= maxCell.X; x++ {
				if pos := (voxel.Coord{X: x, Y: y, Z: z}); grid.GetVoxel(pos) {
					occupied = append(occupied, pos)
				}
			}
		}
	}
	return occupied
}

func compareZYX(a, b voxel.Coord) int {
	if a.Z != b.Z {
		return a.Z - b.Z
	}
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
