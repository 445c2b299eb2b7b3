// Package cli contains the voxelpick command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Global flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"
	generalFlagTrace   = "trace"

	// Scene flags.
	sceneFlagVoxels     = "voxels"
	sceneFlagResolution = "resolution"

	// Query flags.
	raycastFlagOrigin    = "origin"
	raycastFlagDirection = "direction"
	raycastFlagGround    = "ground"
	regionFlagMin        = "min"
	regionFlagMax        = "max"
	statsFlagOptimize    = "optimize"
)

func withSceneFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.PathFlag{
			Name:     sceneFlagVoxels,
			Aliases:  []string{"v"},
			Required: true,
			Usage:    "load occupied voxels from `FILE`, one \"x y z\" cell per line",
		},
		&cli.StringFlag{
			Name:  sceneFlagResolution,
			Usage: "override the configured voxel resolution, e.g. 8cm",
		},
	)
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "voxelpick",
		Usage:           "pick voxel faces in a sparse voxel scene",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.PathFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotated as it grows",
			},
			&cli.BoolFlag{
				Name:  generalFlagTrace,
				Usage: "log this command's steps at debug level under a random trace key",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "raycast",
				Usage:     "find the voxel face, or ground plane point, a ray hits first",
				UsageText: "voxelpick raycast --voxels FILE --origin x,y,z --direction x,y,z [--ground]",
				Flags: withSceneFlags(
					&cli.StringFlag{
						Name:     raycastFlagOrigin,
						Required: true,
						Usage:    "ray origin in meters as x,y,z",
					},
					&cli.StringFlag{
						Name:     raycastFlagDirection,
						Required: true,
						Usage:    "ray direction as x,y,z, need not be normalized",
					},
					&cli.BoolFlag{
						Name:  raycastFlagGround,
						Usage: "fall back to the Y=0 ground plane when no voxel is hit",
					},
				),
				Action: RaycastAction,
			},
			{
				Name:      "region",
				Usage:     "list the exposed voxel faces inside a box",
				UsageText: "voxelpick region --voxels FILE --min x,y,z --max x,y,z",
				Flags: withSceneFlags(
					&cli.StringFlag{
						Name:     regionFlagMin,
						Required: true,
						Usage:    "one corner of the box in meters as x,y,z",
					},
					&cli.StringFlag{
						Name:     regionFlagMax,
						Required: true,
						Usage:    "the opposite corner of the box in meters as x,y,z",
					},
				),
				Action: RegionAction,
			},
			{
				Name:  "stats",
				Usage: "print the shape and memory use of the scene octree",
				Flags: withSceneFlags(
					&cli.BoolFlag{
						Name:  statsFlagOptimize,
						Usage: "collapse redundant nodes before measuring",
					},
				),
				Action: StatsAction,
			},
		},
	}
}
