// Package config defines the voxelpick configuration file and how it is read and validated.
package config

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/voxel/grid"
	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/nodepool"
	"go.viam.com/voxel/octree"
	"go.viam.com/voxel/raycast"
)

// Default values filled in for fields a configuration leaves unset.
const (
	DefaultPoolSizeHint = nodepool.DefaultChunkSize
	DefaultResolution   = grid.Size32cm
)

// DefaultWorkspace is the workspace size, in meters, used when none is configured.
var DefaultWorkspace = [3]float64{5, 5, 5}

// Config is the top level voxelpick configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	Pool    Pool    `json:"pool"`
	Octree  Octree  `json:"octree"`
	Grid    Grid    `json:"grid"`
	Picking Picking `json:"picking"`
	Log     Log     `json:"log"`
}

// Pool configures the node pool backing every octree.
type Pool struct {
	// SizeHint is the number of nodes allocated per chunk.
	SizeHint int `json:"size_hint"`
	// MaxNodes caps the number of live nodes. Zero means no cap.
	MaxNodes int `json:"max_nodes"`
}

// Octree configures standalone octrees.
type Octree struct {
	MaxDepth int `json:"max_depth"`
}

// Grid configures the voxel grid.
type Grid struct {
	Resolution grid.Resolution `json:"resolution"`
	// Workspace is the extent of the grid in meters along X, Y and Z.
	Workspace [3]float64 `json:"workspace"`
}

// WorkspaceVector returns the workspace as a vector.
func (g Grid) WorkspaceVector() r3.Vector {
	return r3.Vector{X: g.Workspace[0], Y: g.Workspace[1], Z: g.Workspace[2]}
}

// Picking configures ray picking.
type Picking struct {
	MaxRayDistance float64 `json:"max_ray_distance"`
}

// Log configures logger levels.
type Log struct {
	Level    string                        `json:"level"`
	Patterns []logging.LoggerPatternConfig `json:"patterns,omitempty"`
}

// Default returns a configuration with every field set to its default. Files are decoded over
// it, so fields a file leaves out keep these values.
func Default() *Config {
	return &Config{
		Pool:    Pool{SizeHint: DefaultPoolSizeHint},
		Octree:  Octree{MaxDepth: octree.DefaultMaxDepth},
		Grid:    Grid{Resolution: DefaultResolution, Workspace: DefaultWorkspace},
		Picking: Picking{MaxRayDistance: raycast.DefaultMaxRayDistance},
		Log:     Log{Level: "info"},
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if err := c.Pool.Validate("pool"); err != nil {
		return err
	}
	if err := c.Octree.Validate("octree"); err != nil {
		return err
	}
	if err := c.Grid.Validate("grid"); err != nil {
		return err
	}
	if err := c.Picking.Validate("picking"); err != nil {
		return err
	}
	return c.Log.Validate("log")
}

// Validate ensures all parts of the config are valid.
func (p Pool) Validate(path string) error {
	if p.SizeHint < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("size_hint must not be negative, got %d", p.SizeHint))
	}
	if p.MaxNodes < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_nodes must not be negative, got %d", p.MaxNodes))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (o Octree) Validate(path string) error {
	if o.MaxDepth < 0 || o.MaxDepth > octree.MaxDepthLimit {
		return utils.NewConfigValidationError(path,
			errors.Errorf("max_depth must be between 0 and %d, got %d", octree.MaxDepthLimit, o.MaxDepth))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (g Grid) Validate(path string) error {
	if !g.Resolution.Valid() {
		return utils.NewConfigValidationError(path, errors.Errorf("unsupported resolution %v", g.Resolution))
	}
	for i, extent := range g.Workspace {
		if extent <= 0 {
			return utils.NewConfigValidationError(path,
				errors.Errorf("workspace[%d] must be positive, got %v", i, extent))
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (p Picking) Validate(path string) error {
	if p.MaxRayDistance <= 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("max_ray_distance must be positive, got %v", p.MaxRayDistance))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (l Log) Validate(path string) error {
	if _, err := logging.LevelFromString(l.Level); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	for idx, pattern := range l.Patterns {
		patternPath := fmt.Sprintf("%s.%s.%d", path, "patterns", idx)
		if pattern.Pattern == "" {
			return utils.NewConfigValidationFieldRequiredError(patternPath, "pattern")
		}
		if !logging.ValidatePattern(pattern.Pattern) {
			return utils.NewConfigValidationError(patternPath,
				errors.Errorf("%q is not a valid logger name pattern", pattern.Pattern))
		}
		if _, err := logging.LevelFromString(pattern.Level); err != nil {
			return utils.NewConfigValidationError(patternPath, err)
		}
	}
	return nil
}

// NewPool returns an initialized octree node pool following the pool section.
func (c *Config) NewPool(logger logging.Logger) (*octree.Pool, error) {
	var opts []nodepool.Option
	if c.Pool.MaxNodes > 0 {
		opts = append(opts, nodepool.WithMaxSlots(c.Pool.MaxNodes))
	}
	pool := octree.NewPool(logger, opts...)
	if err := pool.Init(c.Pool.SizeHint); err != nil {
		return nil, errors.Wrap(err, "initializing node pool")
	}
	return pool, nil
}

// NewGrid returns an empty voxel grid following the grid section.
func (c *Config) NewGrid(pool *octree.Pool, logger logging.Logger) (*grid.VoxelGrid, error) {
	return grid.New(c.Grid.Resolution, c.Grid.WorkspaceVector(), pool, logger)
}

// NewDetector returns a detector following the picking section.
func (c *Config) NewDetector(logger logging.Logger) *raycast.Detector {
	return raycast.NewDetector(logger, raycast.WithMaxRayDistance(c.Picking.MaxRayDistance))
}

// ApplyLogLevels sets the level of logger and of every registered logger, then applies the
// configured patterns on top. Subloggers created afterwards inherit the patterns too.
func (c *Config) ApplyLogLevels(logger logging.Logger) error {
	level, err := logging.LevelFromString(c.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return logging.UpdateLoggerConfig(c.Log.Patterns, level)
}
