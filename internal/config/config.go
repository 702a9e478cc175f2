package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"liftctl/internal/sim"
)

const (
	DefaultDt       = 0.005
	DefaultDuration = 10.0

	DefaultKp          = 3.0
	DefaultKi          = 0.1
	DefaultKd          = 0.075
	DefaultMaxIntegral = 5.0
)

// Zero fields are omitted on save and filled from DefaultConfig on load,
// so a scenario file only needs the values it changes.
type Config struct {
	Scenario string       `yaml:"scenario,omitempty"`
	Dt       float64      `yaml:"dt,omitempty"`
	Duration float64      `yaml:"duration,omitempty"`
	Gains    GainsConfig  `yaml:"gains,omitempty"`
	Plant    PlantConfig  `yaml:"plant,omitempty"`
	Steps    []StepConfig `yaml:"steps,omitempty"`
}

type GainsConfig struct {
	Kp               float64 `yaml:"kp,omitempty"`
	Ki               float64 `yaml:"ki,omitempty"`
	Kd               float64 `yaml:"kd,omitempty"`
	MaxIntegralError float64 `yaml:"max_integral_error,omitempty"`
}

type PlantConfig struct {
	Inertia       float64 `yaml:"inertia,omitempty"`
	Damping       float64 `yaml:"damping,omitempty"`
	StallTorque   float64 `yaml:"stall_torque,omitempty"`
	GravityTorque float64 `yaml:"gravity_torque,omitempty"`
	Stiction      float64 `yaml:"stiction,omitempty"`
	LoadTorque    float64 `yaml:"load_torque,omitempty"`
}

type StepConfig struct {
	At       float64 `yaml:"at,omitempty"`
	Action   string  `yaml:"action"`
	Target   float64 `yaml:"target,omitempty"`
	Speed    float64 `yaml:"speed,omitempty"`
	Accel    float64 `yaml:"accel,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	On       bool    `yaml:"on,omitempty"`
}

func DefaultConfig() *Config {
	p := sim.NewPlant()
	return &Config{
		Scenario: "step",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Gains: GainsConfig{
			Kp:               DefaultKp,
			Ki:               DefaultKi,
			Kd:               DefaultKd,
			MaxIntegralError: DefaultMaxIntegral,
		},
		Plant: PlantConfig{
			Inertia:       p.Inertia,
			Damping:       p.Damping,
			StallTorque:   p.StallTorque,
			GravityTorque: p.GravityTorque,
			Stiction:      p.Stiction,
			LoadTorque:    p.LoadTorque,
		},
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionMove, Target: 0.5, Speed: 2, Accel: 10},
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
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NewPlant builds the simulated joint described by the config.
func (c *Config) NewPlant() *sim.Plant {
	return &sim.Plant{
		Inertia:       c.Plant.Inertia,
		Damping:       c.Plant.Damping,
		StallTorque:   c.Plant.StallTorque,
		GravityTorque: c.Plant.GravityTorque,
		Stiction:      c.Plant.Stiction,
		LoadTorque:    c.Plant.LoadTorque,
	}
}

// ScenarioSteps converts the configured steps for the harness.
func (c *Config) ScenarioSteps() []sim.ScenarioStep {
	steps := make([]sim.ScenarioStep, 0, len(c.Steps))
	for _, st := range c.Steps {
		steps = append(steps, sim.ScenarioStep{
			At:       st.At,
			Action:   st.Action,
			Target:   st.Target,
			Speed:    st.Speed,
			Accel:    st.Accel,
			Duration: st.Duration,
			On:       st.On,
		})
	}
	return steps
}
