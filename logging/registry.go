package logging

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "octree".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "octree" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "voxelpick.*.pool".
	validLoggerName = `^` + validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*$`
)

var loggerPatternRegexp = regexp.MustCompile(validLoggerName)

// ValidatePattern reports whether the pattern is a dot separated logger name that may contain `*`
// wildcard sections.
func ValidatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}

// Registry tracks named loggers so their levels can be changed from configuration.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]Logger
	logConfig []LoggerPatternConfig
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

var globalLoggerRegistry = NewRegistry()

// Register adds a logger under the given name and applies any matching pattern level.
func (lr *Registry) Register(name string, logger Logger) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.loggers[name] = logger
	return lr.applyConfigInLock(name)
}

// Deregister removes the logger with the given name, returning whether it was registered.
func (lr *Registry) Deregister(name string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	_, ok := lr.loggers[name]
	if ok {
		delete(lr.loggers, name)
	}
	return ok
}

// LoggerNamed returns the logger registered under the name.
func (lr *Registry) LoggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

// Names returns the registered logger names, sorted.
func (lr *Registry) Names() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	names := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateConfig replaces the pattern configuration and re-levels every registered logger. Loggers
// that match no pattern are reset to defaultLevel. The last matching pattern wins.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, defaultLevel Level) error {
	for _, lpc := range logConfig {
		if !ValidatePattern(lpc.Pattern) {
			return fmt.Errorf("invalid logger pattern %q", lpc.Pattern)
		}
		if _, err := LevelFromString(lpc.Level); err != nil {
			return err
		}
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.logConfig = logConfig
	for name, logger := range lr.loggers {
		logger.SetLevel(defaultLevel)
		if err := lr.applyConfigInLock(name); err != nil {
			return err
		}
	}
	return nil
}

func (lr *Registry) applyConfigInLock(name string) error {
	logger, ok := lr.loggers[name]
	if !ok {
		return fmt.Errorf("logger named %s not recognized", name)
	}
	for _, lpc := range lr.logConfig {
		r, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
		if err != nil {
			return err
		}
		if !r.MatchString(name) {
			continue
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	return nil
}

// RegisterLogger registers a new logger with a given name in the global registry.
func RegisterLogger(name string, logger Logger) error {
	return globalLoggerRegistry.Register(name, logger)
}

// LoggerNamed returns the logger with the specified name from the global registry.
func LoggerNamed(name string) (logger Logger, ok bool) {
	return globalLoggerRegistry.LoggerNamed(name)
}

// UpdateLoggerConfig applies pattern levels to the loggers in the global registry, which holds
// every named logger made by NewLogger or NewBlankLogger and all of their subloggers. Subloggers
// created later pick the patterns up when they are registered.
func UpdateLoggerConfig(logConfig []LoggerPatternConfig, defaultLevel Level) error {
	return globalLoggerRegistry.UpdateConfig(logConfig, defaultLevel)
}
