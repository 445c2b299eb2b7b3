package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/raycast"
	"go.viam.com/voxel/voxel"
)

// RaycastAction prints the face hit by the ray given on the command line.
func RaycastAction(c *cli.Context) (err error) {
	origin, err := parseVector(c.String(raycastFlagOrigin))
	if err != nil {
		return err
	}
	direction, err := parseVector(c.String(raycastFlagDirection))
	if err != nil {
		return err
	}
	if direction.Norm2() == 0 {
		return errors.New("ray direction must not be zero")
	}

	s, err := loadScene(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close())
	}()

	ray := raycast.NewRay(origin, direction)
	hit := s.detector.RaycastGrid(ray, s.grid)
	face := hit.Face
	if !hit.Hit && c.Bool(raycastFlagGround) {
		face = s.detector.DetectGroundPlane(ray)
	}
	s.logger.CDebugw(s.ctx, "ray cast", "trace", logging.DebugKey(s.ctx),
		"origin", origin, "direction", direction, "hit", hit.Hit, "face", face.String())

	printf(c.App.Writer, "%v", face)
	switch {
	case hit.Hit:
		printf(c.App.Writer, "distance: %.3f", hit.Distance)
		printf(c.App.Writer, "hit point: (%.3f, %.3f, %.3f)", hit.Position.X, hit.Position.Y, hit.Position.Z)
		printPlacement(c, s, face, face.PlacementPosition())
	case face.IsGroundPlane():
		printf(c.App.Writer, "distance: %.3f", face.GroundPlaneHitPoint().Distance(origin))
		printPlacement(c, s, face, face.GroundCell(s.grid.VoxelSize()))
	}
	return nil
}

func printPlacement(c *cli.Context, s *scene, face raycast.Face, target voxel.Coord) {
	if s.detector.IsValidFaceForPlacement(face, s.grid) && s.grid.InBounds(target) {
		printf(c.App.Writer, "place at: %v", target)
		return
	}
	warningf(c.App.Writer, "placement cell %v is occupied or outside the grid", target)
}

// RegionAction prints the exposed faces of every voxel inside the box given on the command line.
func RegionAction(c *cli.Context) (err error) {
	minCorner, err := parseVector(c.String(regionFlagMin))
	if err != nil {
		return err
	}
	maxCorner, err := parseVector(c.String(regionFlagMax))
	if err != nil {
		return err
	}

	s, err := loadScene(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close())
	}()

	faces := s.detector.DetectFacesInRegion(voxel.NewBox(minCorner, maxCorner), s.grid)
	s.logger.CDebugw(s.ctx, "region queried", "trace", logging.DebugKey(s.ctx),
		"min", minCorner, "max", maxCorner, "faces", len(faces))
	if len(faces) == 0 {
		printf(c.App.Writer, "no exposed faces in region")
		return nil
	}

	size := s.grid.VoxelSize()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Voxel", "Face", "Center", "Place at"})
	t.AppendRows(lo.Map(faces, func(face raycast.Face, _ int) table.Row {
		center := face.Center(size)
		return table.Row{
			face.VoxelPosition(),
			face.Direction(),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", center.X, center.Y, center.Z),
			face.PlacementPosition(),
		}
	}))
	voxels := lo.Uniq(lo.Map(faces, func(face raycast.Face, _ int) voxel.Coord {
		return face.VoxelPosition()
	}))
	t.AppendFooter(table.Row{fmt.Sprintf("%d voxels", len(voxels)), fmt.Sprintf("%d faces", len(faces))})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// StatsAction prints octree and grid statistics for the loaded scene.
func StatsAction(c *cli.Context) (err error) {
	s, err := loadScene(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close())
	}()

	if c.Bool(statsFlagOptimize) {
		collapsed := s.grid.Optimize()
		printf(c.App.Writer, "optimize collapsed %d nodes", collapsed)
	}
	if err := s.grid.Octree().Validate(); err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Grid", "Value"})
	t.AppendRow(table.Row{"Resolution", s.grid.Resolution()})
	t.AppendRow(table.Row{"Dimensions", s.grid.Dimensions()})
	t.AppendRow(table.Row{"Fill ratio", fmt.Sprintf("%.6f", s.grid.SpaceFillRatio())})
	t.AppendRow(table.Row{"Pool slots used", fmt.Sprintf("%d / %d", s.pool.Used(), s.pool.Capacity())})
	printf(c.App.Writer, "%s", t.Render())
	printf(c.App.Writer, "%s", s.grid.Octree().Stats())
	return nil
}
