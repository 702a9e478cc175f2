package config

import "liftctl/internal/sim"

// Presets are ready-made scenarios for the CLI and the browser.
var Presets = map[string]*Config{
	"step": {
		Scenario: "step", Dt: 0.005, Duration: 6.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionMove, Target: 0.5, Speed: 2, Accel: 10},
			{At: 3.0, Action: sim.ActionMove, Target: 0.0, Speed: 2, Accel: 10},
		},
	},
	"pick_and_place": {
		Scenario: "pick_and_place", Dt: 0.005, Duration: 12.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionMoveHeight, Target: 40, Speed: 2, Accel: 10},
			{At: 2.5, Action: sim.ActionCarry, On: true},
			{At: 3.0, Action: sim.ActionMoveHeight, Target: 85, Speed: 2, Accel: 10},
			{At: 6.0, Action: sim.ActionLoadCheck},
			{At: 8.0, Action: sim.ActionMoveHeight, Target: 40, Speed: 2, Accel: 10},
			{At: 10.0, Action: sim.ActionCarry, On: false},
		},
	},
	"timed_lift": {
		Scenario: "timed_lift", Dt: 0.005, Duration: 6.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionTimedMove, Target: 0.6, Duration: 1.5},
			{At: 3.5, Action: sim.ActionTimedMove, Target: -0.1, Duration: 1.5},
		},
	},
	"charger": {
		Scenario: "charger", Dt: 0.005, Duration: 10.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionMove, Target: 0.3, Speed: 2, Accel: 10},
			{At: 2.5, Action: sim.ActionCharger, On: true},
			{At: 5.0, Action: sim.ActionCharger, On: false},
		},
	},
	"brace": {
		Scenario: "brace", Dt: 0.005, Duration: 8.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionMove, Target: 0.4, Speed: 2, Accel: 10},
			{At: 3.0, Action: sim.ActionBrace},
			{At: 4.0, Action: sim.ActionUnbrace},
			{At: 5.5, Action: sim.ActionMove, Target: 0.4, Speed: 2, Accel: 10},
		},
	},
	"held": {
		Scenario: "held", Dt: 0.005, Duration: 12.0,
		Steps: []StepConfig{
			{At: 0.5, Action: sim.ActionHold, On: true},
			{At: 0.6, Action: sim.ActionMove, Target: 0.5, Speed: 2, Accel: 10},
			{At: 5.0, Action: sim.ActionHold, On: false},
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	def := DefaultConfig()
	if out.Dt == 0 {
		out.Dt = def.Dt
	}
	if out.Duration == 0 {
		out.Duration = def.Duration
	}
	out.Gains = def.Gains
	out.Plant = def.Plant
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
