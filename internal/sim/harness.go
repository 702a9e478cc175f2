package sim

import (
	"errors"

	"liftctl/internal/lift"
)

// Flags are the externally sensed conditions fed to the controller each
// tick. Scenario steps flip them mid-run.
type Flags struct {
	Held           bool
	Hazard         bool
	Carrying       bool
	OnCharger      bool
	EncoderInvalid bool
}

type command struct {
	at   float64
	fn   func(*Harness)
	done bool
}

// Harness closes the loop between a Controller and a Plant: each step
// integrates the plant under the previous power command, then ticks the
// controller on the resulting encoder sample.
type Harness struct {
	Ctrl  *lift.Controller
	Plant *Plant
	Flags Flags

	integ Integrator
	dt    float64
	t     float64
	state State

	commands  []command
	metrics   []Metric
	observers []Observer
	events    []lift.Event
	samples   []Sample
}

// NewHarness starts with the arm resting on the low hard stop.
func NewHarness(ctrl *lift.Controller, plant *Plant, integ Integrator, dt float64) *Harness {
	h := &Harness{
		Ctrl:  ctrl,
		Plant: plant,
		integ: integ,
		dt:    dt,
		state: State{Angle: lift.MinAngle},
	}
	ctrl.SetEventSink(lift.EventFunc(func(ev lift.Event) {
		h.events = append(h.events, ev)
	}))
	return h
}

func (h *Harness) AddMetric(m Metric)     { h.metrics = append(h.metrics, m) }
func (h *Harness) AddObserver(o Observer) { h.observers = append(h.observers, o) }

// Schedule runs fn once the run clock reaches at. Commands scheduled for
// the same instant fire in the order they were added.
func (h *Harness) Schedule(at float64, fn func(*Harness)) {
	h.commands = append(h.commands, command{at: at, fn: fn})
}

func (h *Harness) Now() float64         { return h.t }
func (h *Harness) PlantState() State    { return h.state }
func (h *Harness) Events() []lift.Event { return h.events }

// Step advances the loop one control period.
func (h *Harness) Step() Sample {
	for i := range h.commands {
		if !h.commands[i].done && h.commands[i].at <= h.t {
			h.commands[i].done = true
			h.commands[i].fn(h)
		}
	}

	h.Plant.Loaded = h.Flags.Carrying

	prev := h.state.Angle
	if h.Flags.Held {
		// An external grip pins the joint.
		h.state.Velocity = 0
	} else {
		h.state = h.integ.Step(h.Plant, h.state, h.Ctrl.GetPower(), h.t, h.dt)
		h.state = h.Plant.Clamp(h.state)
	}
	h.t += h.dt

	h.Ctrl.Tick(lift.TickInput{
		EncoderDelta:   h.state.Angle - prev,
		MeasuredSpeed:  h.state.Velocity,
		EncoderInvalid: h.Flags.EncoderInvalid,
		Held:           h.Flags.Held,
		Hazard:         h.Flags.Hazard,
		Carrying:       h.Flags.Carrying,
		OnCharger:      h.Flags.OnCharger,
		Now:            h.t,
	})

	sm := Sample{
		T:          h.t,
		Angle:      h.state.Angle,
		Velocity:   h.state.Velocity,
		Desired:    h.Ctrl.GetDesiredAngleRad(),
		Power:      h.Ctrl.GetPower(),
		InPosition: h.Ctrl.IsInPosition(),
		Calibrated: h.Ctrl.IsCalibrated(),
	}
	h.samples = append(h.samples, sm)
	for _, m := range h.metrics {
		m.Observe(sm)
	}
	for _, o := range h.observers {
		o.OnStep(sm)
	}
	return sm
}

// Calibrate drives a full calibration to completion, usually before a
// scenario starts.
func (h *Harness) Calibrate() error {
	h.Ctrl.StartCalibration(false, lift.ReasonStartup)
	deadline := h.t + 10.0
	for h.t < deadline {
		h.Step()
		if h.Ctrl.IsCalibrated() {
			return nil
		}
	}
	return errors.New("calibration did not complete")
}

// Run advances the loop for duration seconds and summarizes the metrics.
func (h *Harness) Run(duration float64) *Result {
	end := h.t + duration
	for h.t < end {
		h.Step()
	}
	res := &Result{Samples: h.samples, Metrics: make(map[string]float64)}
	for _, m := range h.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
