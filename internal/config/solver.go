// Package config loads and validates the heat plate solver configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"

	"github.com/banshee-data/heatplate/internal/fsutil"
	"github.com/banshee-data/heatplate/internal/plate"
	"github.com/banshee-data/heatplate/internal/relax"
)

// DefaultConfigPath is the path to the canonical solver defaults file.
const DefaultConfigPath = "config/solver.defaults.json"

// Default values used when a field is omitted.
const (
	DefaultRows          = 10
	DefaultCols          = 10
	DefaultMaxIterations = 5_000_000
)

var (
	// ErrGridTooSmall is returned when rows or cols leave no interior cell.
	ErrGridTooSmall = errors.New("config: grid must be at least 3x3")

	// ErrUnknownPreset is returned by Preset for an unregistered name.
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// SolverConfig represents the root configuration for a solve.
// Nil fields fall back to the defaults returned by the Get* methods, so
// partial JSON files are safe.
type SolverConfig struct {
	// Plate shape and boundary temperatures
	Rows             *int     `json:"rows,omitempty"`
	Cols             *int     `json:"cols,omitempty"`
	LeftTemperature  *float64 `json:"left_temperature,omitempty"`
	RightTemperature *float64 `json:"right_temperature,omitempty"`

	// Relaxation params
	Epsilon       *float64 `json:"epsilon,omitempty"`
	MaxIterations *int     `json:"max_iterations,omitempty"` // 0 disables the cap
	Workers       *int     `json:"workers,omitempty"`        // 0 means one per CPU

	// Reporting params
	ProgressInterval *int  `json:"progress_interval,omitempty"`
	PrintGrid        *bool `json:"print_grid,omitempty"`
	ReportElapsed    *bool `json:"report_elapsed,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySolverConfig returns a SolverConfig with all fields set to nil.
func EmptySolverConfig() *SolverConfig {
	return &SolverConfig{}
}

// DefaultSolverConfig returns a SolverConfig with every field set to its default.
func DefaultSolverConfig() *SolverConfig {
	return &SolverConfig{
		Rows:             ptrInt(DefaultRows),
		Cols:             ptrInt(DefaultCols),
		LeftTemperature:  ptrFloat64(plate.DefaultLeft),
		RightTemperature: ptrFloat64(plate.DefaultRight),
		Epsilon:          ptrFloat64(relax.DefaultEpsilon),
		MaxIterations:    ptrInt(DefaultMaxIterations),
		Workers:          ptrInt(0),
		ProgressInterval: ptrInt(0),
		PrintGrid:        ptrBool(false),
		ReportElapsed:    ptrBool(true),
	}
}

// presets reproduce the two reference runs: a small plate whose final grid is
// printed, and a large plate that is only timed.
var presets = map[string]func() *SolverConfig{
	"small": func() *SolverConfig {
		return &SolverConfig{
			Rows:          ptrInt(10),
			Cols:          ptrInt(10),
			PrintGrid:     ptrBool(true),
			ReportElapsed: ptrBool(false),
		}
	},
	"large": func() *SolverConfig {
		return &SolverConfig{
			Rows:          ptrInt(400),
			Cols:          ptrInt(400),
			PrintGrid:     ptrBool(false),
			ReportElapsed: ptrBool(true),
		}
	},
}

// Preset returns a fresh copy of the named preset.
func Preset(name string) (*SolverConfig, error) {
	f, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadSolverConfig loads a SolverConfig from a JSON file on disk.
func LoadSolverConfig(path string) (*SolverConfig, error) {
	return LoadSolverConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadSolverConfigFS loads a SolverConfig from a JSON file on fsys.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadSolverConfigFS(fsys fsutil.FileSystem, path string) (*SolverConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySolverConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDefaultConfig layers DefaultConfigPath on fsys over DefaultSolverConfig.
// A missing file is not an error; the code defaults are returned unchanged.
func LoadDefaultConfig(fsys fsutil.FileSystem) (*SolverConfig, error) {
	cfg, err := LoadSolverConfigFS(fsys, DefaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSolverConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return DefaultSolverConfig().Merge(cfg), nil
}

// Merge returns a copy of c with every non-nil field of override applied.
func (c *SolverConfig) Merge(override *SolverConfig) *SolverConfig {
	out := *c
	if override == nil {
		return &out
	}
	if override.Rows != nil {
		out.Rows = override.Rows
	}
	if override.Cols != nil {
		out.Cols = override.Cols
	}
	if override.LeftTemperature != nil {
		out.LeftTemperature = override.LeftTemperature
	}
	if override.RightTemperature != nil {
		out.RightTemperature = override.RightTemperature
	}
	if override.Epsilon != nil {
		out.Epsilon = override.Epsilon
	}
	if override.MaxIterations != nil {
		out.MaxIterations = override.MaxIterations
	}
	if override.Workers != nil {
		out.Workers = override.Workers
	}
	if override.ProgressInterval != nil {
		out.ProgressInterval = override.ProgressInterval
	}
	if override.PrintGrid != nil {
		out.PrintGrid = override.PrintGrid
	}
	if override.ReportElapsed != nil {
		out.ReportElapsed = override.ReportElapsed
	}
	return &out
}

// Validate checks that the configuration values are valid.
func (c *SolverConfig) Validate() error {
	if rows, cols := c.GetRows(), c.GetCols(); rows < plate.MinInteriorDim || cols < plate.MinInteriorDim {
		return fmt.Errorf("%w, got %dx%d", ErrGridTooSmall, rows, cols)
	}

	for name, v := range map[string]*float64{
		"left_temperature":  c.LeftTemperature,
		"right_temperature": c.RightTemperature,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be finite, got %v", name, *v)
		}
	}

	if c.Epsilon != nil {
		if !(*c.Epsilon > 0) || math.IsInf(*c.Epsilon, 0) {
			return fmt.Errorf("epsilon must be positive and finite, got %v", *c.Epsilon)
		}
	}

	if c.MaxIterations != nil && *c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", *c.MaxIterations)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.ProgressInterval != nil && *c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be non-negative, got %d", *c.ProgressInterval)
	}

	return nil
}

// RelaxConfig builds the solver configuration.
func (c *SolverConfig) RelaxConfig() relax.Config {
	return relax.Config{
		Epsilon:          c.GetEpsilon(),
		MaxIterations:    c.GetMaxIterations(),
		Workers:          c.GetWorkers(),
		ProgressInterval: c.GetProgressInterval(),
	}
}

// GetRows returns the rows value or the default.
func (c *SolverConfig) GetRows() int {
	if c.Rows == nil {
		return DefaultRows
	}
	return *c.Rows
}

// GetCols returns the cols value or the default.
func (c *SolverConfig) GetCols() int {
	if c.Cols == nil {
		return DefaultCols
	}
	return *c.Cols
}

// GetLeftTemperature returns the left_temperature value or the default.
func (c *SolverConfig) GetLeftTemperature() float64 {
	if c.LeftTemperature == nil {
		return plate.DefaultLeft
	}
	return *c.LeftTemperature
}

// GetRightTemperature returns the right_temperature value or the default.
func (c *SolverConfig) GetRightTemperature() float64 {
	if c.RightTemperature == nil {
		return plate.DefaultRight
	}
	return *c.RightTemperature
}

// GetEpsilon returns the epsilon value or the default.
func (c *SolverConfig) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return relax.DefaultEpsilon
	}
	return *c.Epsilon
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *SolverConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return DefaultMaxIterations
	}
	return *c.MaxIterations
}

// GetWorkers returns the workers value or the default.
func (c *SolverConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetProgressInterval returns the progress_interval value or the default.
func (c *SolverConfig) GetProgressInterval() int {
	if c.ProgressInterval == nil {
		return 0
	}
	return *c.ProgressInterval
}

// GetPrintGrid returns the print_grid value or the default.
func (c *SolverConfig) GetPrintGrid() bool {
	if c.PrintGrid == nil {
		return false
	}
	return *c.PrintGrid
}

// GetReportElapsed returns the report_elapsed value or the default.
func (c *SolverConfig) GetReportElapsed() bool {
	if c.ReportElapsed == nil {
		return true
	}
	return *c.ReportElapsed
}
