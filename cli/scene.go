package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/voxel/config"
	"go.viam.com/voxel/grid"
	"go.viam.com/voxel/logging"
	"go.viam.com/voxel/octree"
	"go.viam.com/voxel/raycast"
	"go.viam.com/voxel/voxel"
)

// scene is a voxel grid loaded for a single command. ctx carries the command's debug key when
// --trace is set.
type scene struct {
	ctx      context.Context
	logger   logging.Logger
	logFile  *logging.FileAppender
	cfg      *config.Config
	pool     *octree.Pool
	grid     *grid.VoxelGrid
	detector *raycast.Detector
}

// newLogger logs to the app's error writer, and to the --log-file file when one is given. The
// returned FileAppender is nil without --log-file.
func newLogger(c *cli.Context) (logging.Logger, *logging.FileAppender) {
	logger := logging.NewBlankLogger("voxelpick")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	var logFile *logging.FileAppender
	if path := c.Path(generalFlagLogFile); path != "" {
		logFile = logging.NewFileAppender(path)
		logger.AddAppender(logFile)
	}
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.WARN)
	}
	return logger, logFile
}

// loadScene reads the config named by the global flags and fills a grid with the voxels file.
func loadScene(c *cli.Context) (_ *scene, err error) {
	logger, logFile := newLogger(c)
	// Until the scene exists the log file is closed here. Afterwards scene.close owns it.
	var s *scene
	if logFile != nil {
		defer func() {
			if err != nil && s == nil {
				err = multierr.Combine(err, logFile.Close())
			}
		}()
	}

	cfg := config.Default()
	if path := c.Path(generalFlagConfig); path != "" {
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, err
		}
	}
	if c.Path(generalFlagConfig) != "" && !c.Bool(generalFlagDebug) {
		err = cfg.ApplyLogLevels(logger)
	} else {
		err = logging.UpdateLoggerConfig(nil, logger.GetLevel())
	}
	if err != nil {
		return nil, err
	}
	ctx := commandContext(c)
	if res := c.String(sceneFlagResolution); res != "" {
		parsed, err := grid.ParseResolution(res)
		if err != nil {
			return nil, err
		}
		cfg.Grid.Resolution = parsed
	}
	voxels, err := loadVoxels(c.Path(sceneFlagVoxels))
	if err != nil {
		return nil, err
	}

	pool, err := cfg.NewPool(logger.Sublogger("pool"))
	if err != nil {
		return nil, err
	}
	g, err := cfg.NewGrid(pool, logger.Sublogger("grid"))
	if err != nil {
		return nil, multierr.Combine(err, pool.Shutdown())
	}
	s = &scene{
		ctx:      ctx,
		logger:   logger,
		logFile:  logFile,
		cfg:      cfg,
		pool:     pool,
		grid:     g,
		detector: cfg.NewDetector(logger.Sublogger("picking")),
	}

	var skipped int
	for _, v := range voxels {
		if !g.InBounds(v) {
			skipped++
			continue
		}
		if !g.SetVoxel(v, true) {
			return nil, multierr.Combine(errors.Errorf("could not store voxel %v, node pool exhausted", v), s.close())
		}
	}
	if skipped > 0 {
		logger.Warnw("skipped voxels outside the grid", "skipped", skipped, "dims", g.Dimensions())
	}
	logger.CDebugw(ctx, "scene loaded", "trace", logging.DebugKey(ctx), "voxels", g.VoxelCount(), "nodes", g.Octree().NodeCount())
	return s, nil
}

// commandContext returns the command's context, tagged for debug logging under a fresh key when
// --trace is set.
func commandContext(c *cli.Context) context.Context {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Bool(generalFlagTrace) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	return ctx
}

// close releases every node back to the pool and shuts it down.
func (s *scene) close() error {
	s.grid.Clear()
	err := s.pool.Shutdown()
	if s.logFile != nil {
		err = multierr.Combine(err, s.logFile.Close())
	}
	return err
}

func loadVoxels(path string) ([]voxel.Coord, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening voxels file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	voxels, err := readVoxels(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return voxels, nil
}

// readVoxels parses one cell per line as three integers separated by spaces or commas. Blank
// lines and lines starting with # are skipped.
func readVoxels(r io.Reader) ([]voxel.Coord, error) {
	var voxels []voxel.Coord
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 coordinates, got %d", lineNum, len(fields))
		}
		var xyz [3]int
		for i, field := range fields {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNum)
			}
			xyz[i] = n
		}
		voxels = append(voxels, voxel.NewCoord(xyz[0], xyz[1], xyz[2]))
	}
	return voxels, scanner.Err()
}

// parseVector parses "x,y,z" into a vector.
func parseVector(s string) (r3.Vector, error) {
	fields := splitFields(s)
	if len(fields) != 3 {
		return r3.Vector{}, errors.Errorf("expected x,y,z but got %q", s)
	}
	var xyz [3]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "parsing %q", s)
		}
		xyz[i] = f
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a bold yellow "Warning: " prefix before the message. Color is dropped when w is
// not a terminal.
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}
