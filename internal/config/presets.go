package config

import "sort"

var identity = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// quad is a small quadrotor with a diagonal inertia tensor.
var quad = VehicleConfig{
	Mass:    1.2,
	Inertia: [3][3]float64{{0.0123, 0, 0}, {0, 0.0123, 0}, {0, 0, 0.0224}},
	Gravity: 9.8,
}

var Presets = map[string]*Config{
	"hover": {
		Field:   FieldConfig{Lines: []string{"0"}, Convention: "native"},
		Vehicle: VehicleConfig{Mass: 2, Inertia: identity, Gravity: 9.8},
		Sim:     SimConfig{Integrator: "euler", Dt: 0.01, Duration: 5},
	},
	"cruise": {
		Field:   FieldConfig{Lines: []string{"2", "-1", "0"}, Convention: "native"},
		Vehicle: VehicleConfig{Mass: 2, Inertia: identity, Gravity: 9.8},
		Sim:     SimConfig{Integrator: "rk4", Dt: 0.01, Duration: 10, Init: [4]float64{-1, -2, 0, 0}},
	},
	"circle": {
		Field:   FieldConfig{Lines: []string{"-y", "x", "0", "0"}, Convention: "native"},
		Vehicle: quad,
		Sim:     SimConfig{Integrator: "rk4", Dt: 0.01, Duration: 12.6, Init: [4]float64{2, 0, 1, 0}},
	},
	"helix": {
		Field:   FieldConfig{Lines: []string{"-0.5*y", "0.5*x", "0.2", "0.5"}, Convention: "native"},
		Vehicle: quad,
		Sim:     SimConfig{Integrator: "rk45", Dt: 0.02, Duration: 20, Adaptive: true, Tolerance: 1e-8, Init: [4]float64{3, 0, 0, 0}},
	},
	"climb": {
		Field:   FieldConfig{Lines: []string{"0", "0", "0.5*(5 - z)"}, Convention: "flip_yz"},
		Vehicle: quad,
		Sim:     SimConfig{Integrator: "rk4", Dt: 0.01, Duration: 10, Init: [4]float64{0, 0, 0, 0}},
	},
}

// GetPreset returns a copy of the named preset, nil if unknown.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Field.Lines = append([]string(nil), cfg.Field.Lines...)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
