package metrics

import (
	"math"
	"testing"

	"liftctl/internal/sim"
)

func TestControlEffortAverages(t *testing.T) {
	m := NewControlEffort()
	m.Observe(sim.Sample{Power: 0.5})
	m.Observe(sim.Sample{Power: -0.5})
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestPeakPowerTracksMagnitude(t *testing.T) {
	m := NewPeakPower()
	m.Observe(sim.Sample{Power: 0.2})
	m.Observe(sim.Sample{Power: -0.9})
	m.Observe(sim.Sample{Power: 0.4})
	if m.Value() != 0.9 {
		t.Errorf("expected 0.9, got %f", m.Value())
	}
}

func TestSettlingTime(t *testing.T) {
	m := NewSettlingTime(0.01)
	m.Observe(sim.Sample{T: 0.1, Angle: 0.5, Desired: 0.3})
	m.Observe(sim.Sample{T: 0.2, Angle: 0.32, Desired: 0.3})
	m.Observe(sim.Sample{T: 0.3, Angle: 0.305, Desired: 0.3})
	m.Observe(sim.Sample{T: 0.4, Angle: 0.3, Desired: 0.3})
	if m.Value() != 0.2 {
		t.Errorf("expected last excursion at 0.2, got %f", m.Value())
	}
}

func TestOvershoot(t *testing.T) {
	m := NewOvershoot()
	m.Observe(sim.Sample{Angle: 0.25, Desired: 0.3})
	m.Observe(sim.Sample{Angle: 0.34, Desired: 0.3})
	m.Observe(sim.Sample{Angle: 0.31, Desired: 0.3})
	if math.Abs(m.Value()-0.04) > 1e-12 {
		t.Errorf("expected overshoot 0.04, got %f", m.Value())
	}
}

func TestInPositionRatio(t *testing.T) {
	m := NewInPositionRatio()
	m.Observe(sim.Sample{InPosition: true})
	m.Observe(sim.Sample{InPosition: false})
	m.Observe(sim.Sample{InPosition: true})
	m.Observe(sim.Sample{InPosition: true})
	if m.Value() != 0.75 {
		t.Errorf("expected 0.75, got %f", m.Value())
	}
}
