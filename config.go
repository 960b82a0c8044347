package zphy

import (
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_WORKERS   = 1
	DEFAULT_SUBSTEPS  = 1
	DEFAULT_CELL_SIZE = 2.0
	DEFAULT_CELLS     = 1024
)

// DefaultGravity is the gravity acceleration used when none is configured (m/s²)
var DefaultGravity = mgl32.Vec3{0, -9.81, 0}

var ErrInvalidConfig = errors.New("invalid world configuration")

// Config describes a World. It can be decoded from YAML:
//
//	gravity: [0, -9.81, 0]
//	substeps: 1
//	workers: 4
//	cell_size: 2
//	cells: 1024
//	friction: true
type Config struct {
	Gravity  []float32 `yaml:"gravity"`
	Substeps int       `yaml:"substeps"`
	Workers  int       `yaml:"workers"`
	// CellSize of the broad phase grid, 0 falls back to testing all pairs
	CellSize float32 `yaml:"cell_size"`
	Cells    int     `yaml:"cells"`
	// Friction enables Coulomb friction on contacts
	Friction bool `yaml:"friction"`
}

// DefaultConfig returns earth gravity, one substep, one worker, a spatial grid and friction on
func DefaultConfig() Config {
	return Config{
		Gravity:  []float32{DefaultGravity.X(), DefaultGravity.Y(), DefaultGravity.Z()},
		Substeps: DEFAULT_SUBSTEPS,
		Workers:  DEFAULT_WORKERS,
		CellSize: DEFAULT_CELL_SIZE,
		Cells:    DEFAULT_CELLS,
		Friction: true,
	}
}

// LoadConfig decodes a YAML config on top of DefaultConfig and validates it
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config values
func (c Config) Validate() error {
	if len(c.Gravity) != 3 {
		return fmt.Errorf("%w: gravity needs 3 components, got %d", ErrInvalidConfig, len(c.Gravity))
	}
	for _, g := range c.Gravity {
		if math32.IsNaN(g) || math32.IsInf(g, 0) {
			return fmt.Errorf("%w: gravity %v is not finite", ErrInvalidConfig, c.Gravity)
		}
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps %d < 1", ErrInvalidConfig, c.Substeps)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d < 1", ErrInvalidConfig, c.Workers)
	}
	if c.CellSize < 0 || math32.IsNaN(c.CellSize) || math32.IsInf(c.CellSize, 0) {
		return fmt.Errorf("%w: cell_size %v", ErrInvalidConfig, c.CellSize)
	}
	if c.CellSize > 0 && c.Cells < 1 {
		return fmt.Errorf("%w: cells %d < 1 with a spatial grid", ErrInvalidConfig, c.Cells)
	}
	return nil
}

// GravityVec returns the gravity as a vector. The config must be valid.
func (c Config) GravityVec() mgl32.Vec3 {
	return mgl32.Vec3{c.Gravity[0], c.Gravity[1], c.Gravity[2]}
}
