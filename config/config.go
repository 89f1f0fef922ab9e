// Package config provides configuration loading and access for the
// turbulence driving generator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all generator and driver configuration parameters.
type Config struct {
	Turbulence TurbulenceConfig `yaml:"turbulence"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Tracers    TracersConfig    `yaml:"tracers"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// TurbulenceConfig holds the physical driving parameters. Field names match
// the parameter names used by the hydro codes this generator plugs into.
type TurbulenceConfig struct {
	NDim int `yaml:"ndim"` // spatial dimension, 1-3

	// Domain bounding box. Unused axes may be left at zero extent.
	XMin float64 `yaml:"xmin"`
	XMax float64 `yaml:"xmax"`
	YMin float64 `yaml:"ymin"`
	YMax float64 `yaml:"ymax"`
	ZMin float64 `yaml:"zmin"`
	ZMax float64 `yaml:"zmax"`

	Velocity  float64 `yaml:"velocity"`   // target turbulent velocity dispersion
	KDriv     float64 `yaml:"k_driv"`     // driving wavenumber in 2*pi/Lx units
	KMin      float64 `yaml:"k_min"`      // band floor in 2*pi/Lx units
	KMax      float64 `yaml:"k_max"`      // band ceiling in 2*pi/Lx units
	SolWeight float64 `yaml:"sol_weight"` // 0 compressive, 0.5 natural mix, 1 solenoidal

	SpectForm   int     `yaml:"spect_form"`    // 0 band, 1 parabola, 2 power law
	PowerLawExp float64 `yaml:"power_law_exp"` // power-law spectrum exponent
	AnglesExp   float64 `yaml:"angles_exp"`    // angular sampling exponent (power law)

	EnergyCoeff       float64 `yaml:"energy_coeff"` // calibration of the injection rate
	RandomSeed        int32   `yaml:"random_seed"`  // nonzero; fixes the whole driving history
	NStepsPerTurnover int     `yaml:"nsteps_per_turnover_time"`
	MaxModes          int     `yaml:"max_modes"` // hard cap on the mode table
}

// SamplingConfig holds field sampling parameters for telemetry.
type SamplingConfig struct {
	Grid int `yaml:"grid"` // sample points per axis
}

// TracersConfig holds tracer particle parameters.
type TracersConfig struct {
	Count int   `yaml:"count"` // number of tracers (0 disables)
	Seed  int64 `yaml:"seed"`  // placement seed, independent of the driving seed
}

// TelemetryConfig holds telemetry output parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // driving patterns per perf window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	LX, LY, LZ float64 // domain lengths; unused axes fall back to LX
}

// Validate checks the physical parameters. A generator built from an
// invalid configuration would silently produce garbage, so everything here
// is fatal.
func (t *TurbulenceConfig) Validate() error {
	if t.NDim < 1 || t.NDim > 3 {
		return fmt.Errorf("config: ndim must be 1-3, got %d", t.NDim)
	}
	if t.XMax <= t.XMin {
		return fmt.Errorf("config: xmax %g must exceed xmin %g", t.XMax, t.XMin)
	}
	if t.NDim > 1 && t.YMax < t.YMin {
		return fmt.Errorf("config: ymax %g is below ymin %g", t.YMax, t.YMin)
	}
	if t.NDim > 2 && t.ZMax < t.ZMin {
		return fmt.Errorf("config: zmax %g is below zmin %g", t.ZMax, t.ZMin)
	}
	if t.Velocity <= 0 {
		return fmt.Errorf("config: velocity must be positive, got %g", t.Velocity)
	}
	if t.KDriv <= 0 {
		return fmt.Errorf("config: k_driv must be positive, got %g", t.KDriv)
	}
	if t.KMin <= 0 || t.KMax < t.KMin {
		return fmt.Errorf("config: need 0 < k_min <= k_max, got k_min=%g k_max=%g", t.KMin, t.KMax)
	}
	if t.SolWeight < 0 || t.SolWeight > 1 {
		return fmt.Errorf("config: sol_weight must be in [0,1], got %g", t.SolWeight)
	}
	if t.SpectForm < 0 || t.SpectForm > 2 {
		return fmt.Errorf("config: spect_form must be 0 (band), 1 (parabola) or 2 (power law), got %d", t.SpectForm)
	}
	if t.EnergyCoeff <= 0 {
		return fmt.Errorf("config: energy_coeff must be positive, got %g", t.EnergyCoeff)
	}
	if t.RandomSeed == 0 {
		return fmt.Errorf("config: random_seed must be nonzero")
	}
	if t.NStepsPerTurnover < 1 {
		return fmt.Errorf("config: nsteps_per_turnover_time must be >= 1, got %d", t.NStepsPerTurnover)
	}
	if t.MaxModes < 1 {
		return fmt.Errorf("config: max_modes must be positive, got %d", t.MaxModes)
	}
	return nil
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Turbulence.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	t := &c.Turbulence
	c.Derived.LX = t.XMax - t.XMin
	c.Derived.LY = t.YMax - t.YMin
	c.Derived.LZ = t.ZMax - t.ZMin

	// Unused axes default to the x extent so wavevector conversions stay
	// finite.
	if c.Derived.LY <= 0 {
		c.Derived.LY = c.Derived.LX
	}
	if c.Derived.LZ <= 0 {
		c.Derived.LZ = c.Derived.LX
	}

	if c.Sampling.Grid < 2 {
		c.Sampling.Grid = 2
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 10
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
