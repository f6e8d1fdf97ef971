package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/flatsim/internal/field"
	"github.com/san-kum/flatsim/internal/flatness"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 10.0
	DefaultMass       = 1.0
	DefaultIntegrator = "rk4"
	DefaultController = "feedforward"
)

type Config struct {
	Field   FieldConfig   `yaml:"field"`
	Vehicle VehicleConfig `yaml:"vehicle"`
	Sim     SimConfig     `yaml:"sim"`
}

// FieldConfig names the vector field either by file or inline, one
// expression per entry.
type FieldConfig struct {
	File       string   `yaml:"file,omitempty"`
	Lines      []string `yaml:"lines,omitempty"`
	Convention string   `yaml:"convention,omitempty"`
}

type VehicleConfig struct {
	Mass    float64       `yaml:"mass"`
	Inertia [3][3]float64 `yaml:"inertia"`
	Gravity float64       `yaml:"gravity"`
}

type SimConfig struct {
	Integrator string     `yaml:"integrator"`
	Controller string     `yaml:"controller,omitempty"`
	Dt         float64    `yaml:"dt"`
	Duration   float64    `yaml:"duration"`
	Adaptive   bool       `yaml:"adaptive,omitempty"`
	Tolerance  float64    `yaml:"tolerance,omitempty"`
	Init       [4]float64 `yaml:"init"`
}

func DefaultConfig() *Config {
	return &Config{
		Field: FieldConfig{
			Lines:      []string{"0"},
			Convention: field.Native.String(),
		},
		Vehicle: VehicleConfig{
			Mass:    DefaultMass,
			Inertia: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Gravity: flatness.StandardGravity,
		},
		Sim: SimConfig{
			Integrator: DefaultIntegrator,
			Controller: DefaultController,
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Field.File != "" && !fieldLinesSet(data) {
		cfg.Field.Lines = nil
	}
	return cfg, cfg.Validate()
}

// fieldLinesSet reports whether the document sets field.lines explicitly, so
// the default inline field does not shadow a field file.
func fieldLinesSet(data []byte) bool {
	var probe struct {
		Field struct {
			Lines []string `yaml:"lines"`
		} `yaml:"field"`
	}
	return yaml.Unmarshal(data, &probe) == nil && len(probe.Field.Lines) > 0
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Field.File == "" && len(c.Field.Lines) == 0 {
		return fmt.Errorf("%w: field needs a file or inline lines", flatness.ErrConfig)
	}
	if c.Field.File != "" && len(c.Field.Lines) > 0 {
		return fmt.Errorf("%w: field sets both file and lines", flatness.ErrConfig)
	}
	if _, err := field.ParseConvention(c.Field.Convention); err != nil {
		return fmt.Errorf("%w: %v", flatness.ErrConfig, err)
	}
	if err := c.VehicleParameters().Validate(); err != nil {
		return err
	}
	if c.Sim.Dt <= 0 || c.Sim.Duration <= 0 {
		return fmt.Errorf("%w: dt and duration must be positive", flatness.ErrConfig)
	}
	return nil
}

// LoadField parses the configured field, from file or inline lines.
func (c *Config) LoadField() (*field.Field, error) {
	if c.Field.File != "" {
		return field.Load(c.Field.File)
	}
	return field.Parse(c.Field.Lines)
}

func (c *Config) Convention() field.Convention {
	conv, _ := field.ParseConvention(c.Field.Convention)
	return conv
}

func (c *Config) VehicleParameters() flatness.VehicleParameters {
	p := flatness.NewVehicleParameters(c.Vehicle.Mass, c.Vehicle.Inertia)
	if c.Vehicle.Gravity != 0 {
		p.Gravity = c.Vehicle.Gravity
	}
	return p
}

func (c *Config) GetInitState() []float64 {
	return c.Sim.Init[:]
}
