package virial

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Potential names accepted by SystemConfig.Potential
const (
	PotentialHardSphere   = "hard-sphere"
	PotentialLennardJones = "lennard-jones"
	PotentialSquareWell   = "square-well"
)

// Config is the complete description of an overlap sampling run.
type Config struct {
	System   SystemConfig   `yaml:"system"`
	Sampling SamplingConfig `yaml:"sampling"`
	Bias     BiasConfig     `yaml:"bias"`

	// Catalog is a directory holding generated diagram sets; empty means in-memory.
	Catalog string `yaml:"catalog"`
}

// SystemConfig describes the target system and the hard-sphere reference.
type SystemConfig struct {
	Points      int     `yaml:"points"`
	Temperature float64 `yaml:"temperature"`
	Potential   string  `yaml:"potential"`
	Sigma       float64 `yaml:"sigma"`
	Epsilon     float64 `yaml:"epsilon"`
	Lambda      float64 `yaml:"lambda"` // square-well range in units of sigma
	RefSigma    float64 `yaml:"ref_sigma"`
	ReeHoover   bool    `yaml:"ree_hoover"`
	Flip        bool    `yaml:"flip"`

	// Polarization, when present, makes the target polarizable.
	Polarization *PolarizationConfig `yaml:"polarization,omitempty"`
}

// PolarizationConfig gives every point a charge and an isotropic polarizability.
// Dipoles are induced by the bare charges only, so subsets of three or more points
// carry a non-additive energy.
type PolarizationConfig struct {
	Charge float64 `yaml:"charge"`
	Alpha  float64 `yaml:"alpha"`

	// MaxOrder is the largest subset whose energy is taken from the model; 0 means all points.
	MaxOrder int `yaml:"max_order"`
}

// SamplingConfig holds the Monte Carlo schedule shared by both chains.
type SamplingConfig struct {
	Seed               int64   `yaml:"seed"`
	StepSize           float64 `yaml:"step_size"`
	SubSteps           int     `yaml:"sub_steps"`
	BlockSize          int     `yaml:"block_size"`
	EquilibrationSteps int64   `yaml:"equilibration_steps"`
	ProductionSteps    int64   `yaml:"production_steps"`
	Replicas           int     `yaml:"replicas"`
}

// BiasConfig controls the search for the overlap bias α.
type BiasConfig struct {
	File       string  `yaml:"file"`
	Center     float64 `yaml:"center"`
	Span       float64 `yaml:"span"` // half width of the window set in ln(α)
	Windows    int     `yaml:"windows"`
	Iterations int     `yaml:"iterations"`
	BlockSteps int64   `yaml:"block_steps"`
}

// DefaultConfig returns a hard-sphere B4 run with Ree-Hoover diagrams.
func DefaultConfig() Config {
	return Config{
		System: SystemConfig{
			Points:      4,
			Temperature: 1,
			Potential:   PotentialHardSphere,
			Sigma:       1,
			Epsilon:     1,
			Lambda:      1.5,
			RefSigma:    1,
			ReeHoover:   true,
		},
		Sampling: SamplingConfig{
			Seed:               1,
			StepSize:           0.5,
			SubSteps:           1,
			BlockSize:          1000,
			EquilibrationSteps: 10000,
			ProductionSteps:    1000000,
			Replicas:           1,
		},
		Bias: BiasConfig{
			Center:     1,
			Span:       5,
			Windows:    11,
			Iterations: 6,
			BlockSteps: 5000,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(pathname string) (Config, error) {
	cfg := DefaultConfig()
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %q", pathname)
	}
	if err = yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrBadConfig, "parsing %q: %v", pathname, err)
	}
	return cfg, cfg.Validate()
}

// Marshal renders the config as YAML.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (cfg *Config) Validate() error {
	sys := &cfg.System
	if sys.Points < 2 || sys.Points > MaxPoints {
		return errors.Wrapf(ErrBadPointCount, "points = %d", sys.Points)
	}
	if sys.ReeHoover && sys.Points > MaxReeHooverPoints {
		return errors.Wrapf(ErrBadReeHooverOrder, "points = %d", sys.Points)
	}
	if !positive(sys.Temperature) {
		return errors.Wrap(ErrBadConfig, "temperature must be positive")
	}
	if !positive(sys.Sigma) || !positive(sys.RefSigma) {
		return errors.Wrap(ErrBadConfig, "sigma and ref_sigma must be positive")
	}
	switch sys.Potential {
	case PotentialHardSphere:
	case PotentialLennardJones:
		if !positive(sys.Epsilon) {
			return errors.Wrap(ErrBadConfig, "epsilon must be positive")
		}
	case PotentialSquareWell:
		if !positive(sys.Epsilon) || !(sys.Lambda > 1) {
			return errors.Wrap(ErrBadConfig, "square well needs epsilon > 0 and lambda > 1")
		}
	default:
		return errors.Wrapf(ErrBadConfig, "unknown potential %q", sys.Potential)
	}
	if pol := sys.Polarization; pol != nil {
		if !positive(pol.Alpha) || !positive(math.Abs(pol.Charge)) {
			return errors.Wrap(ErrBadConfig, "polarization needs alpha > 0 and a non-zero charge")
		}
		if pol.MaxOrder != 0 && pol.MaxOrder < 3 {
			return errors.Wrapf(ErrBadConfig, "polarization max_order = %d", pol.MaxOrder)
		}
	}

	smp := &cfg.Sampling
	if !positive(smp.StepSize) {
		return errors.Wrap(ErrBadConfig, "step_size must be positive")
	}
	if smp.SubSteps < 1 || smp.BlockSize < 1 || smp.ProductionSteps < 1 || smp.Replicas < 1 {
		return errors.Wrap(ErrBadConfig, "sub_steps, block_size, production_steps and replicas must be >= 1")
	}
	if smp.EquilibrationSteps < 0 {
		return errors.Wrap(ErrBadConfig, "equilibration_steps must be >= 0")
	}

	bias := &cfg.Bias
	if !positive(bias.Center) {
		return errors.Wrapf(ErrBadBias, "center = %v", bias.Center)
	}
	if bias.Iterations > 0 {
		if !positive(bias.Span) || bias.Windows < 1 || bias.BlockSteps < 1 {
			return errors.Wrap(ErrBadConfig, "bias search needs span > 0, windows >= 1 and block_steps >= 1")
		}
	}
	if bias.Iterations < 0 {
		return errors.Wrap(ErrBadConfig, "iterations must be >= 0")
	}
	return nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
