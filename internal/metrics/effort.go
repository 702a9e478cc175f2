package metrics

import (
	"math"

	"liftctl/internal/sim"
)

// ControlEffort is the mean absolute motor power over a run.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(sm sim.Sample) {
	c.sum += math.Abs(sm.Power)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// PeakPower is the largest absolute motor power seen.
type PeakPower struct {
	name string
	max  float64
}

func NewPeakPower() *PeakPower {
	return &PeakPower{name: "peak_power"}
}

func (p *PeakPower) Name() string { return p.name }

func (p *PeakPower) Observe(sm sim.Sample) {
	if v := math.Abs(sm.Power); v > p.max {
		p.max = v
	}
}

func (p *PeakPower) Value() float64 { return p.max }

func (p *PeakPower) Reset() { p.max = 0 }
