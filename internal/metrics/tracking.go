package metrics

import (
	"math"

	"liftctl/internal/sim"
)

// SettlingTime is the time of the last sample outside the tolerance band
// around the commanded angle.
type SettlingTime struct {
	name      string
	tolerance float64
	last      float64
}

func NewSettlingTime(tolerance float64) *SettlingTime {
	return &SettlingTime{name: "settling_time", tolerance: tolerance}
}

func (s *SettlingTime) Name() string { return s.name }

func (s *SettlingTime) Observe(sm sim.Sample) {
	if math.Abs(sm.Angle-sm.Desired) > s.tolerance {
		s.last = sm.T
	}
}

func (s *SettlingTime) Value() float64 { return s.last }

func (s *SettlingTime) Reset() { s.last = 0 }

// Overshoot is the largest excursion above the commanded angle, the
// direction an upward move overshoots in.
type Overshoot struct {
	name string
	max  float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot"}
}

func (o *Overshoot) Name() string { return o.name }

func (o *Overshoot) Observe(sm sim.Sample) {
	if ex := sm.Angle - sm.Desired; ex > o.max {
		o.max = ex
	}
}

func (o *Overshoot) Value() float64 { return o.max }

func (o *Overshoot) Reset() { o.max = 0 }

// InPositionRatio is the fraction of samples spent within the in-position
// band, a rough stability figure for a scenario.
type InPositionRatio struct {
	name    string
	in      int
	samples int
}

func NewInPositionRatio() *InPositionRatio {
	return &InPositionRatio{name: "in_position_ratio"}
}

func (r *InPositionRatio) Name() string { return r.name }

func (r *InPositionRatio) Observe(sm sim.Sample) {
	r.samples++
	if sm.InPosition {
		r.in++
	}
}

func (r *InPositionRatio) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.in) / float64(r.samples)
}

func (r *InPositionRatio) Reset() {
	r.in = 0
	r.samples = 0
}
