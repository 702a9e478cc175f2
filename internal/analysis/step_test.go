package analysis

import (
	"math"
	"strings"
	"testing"

	"liftctl/internal/sim"
)

// firstOrder builds a trace that steps to each target and relaxes toward
// it exponentially, the shape a well tuned servo produces.
func firstOrder(targets []float64, ticksPer int, dt, tau float64) []sim.Sample {
	var out []sim.Sample
	angle := 0.0
	t := 0.0
	for _, target := range targets {
		for i := 0; i < ticksPer; i++ {
			prev := angle
			angle += (target - angle) * dt / tau
			t += dt
			out = append(out, sim.Sample{
				T:        t,
				Angle:    angle,
				Velocity: (angle - prev) / dt,
				Desired:  target,
			})
		}
	}
	return out
}

func TestStepResponsesSegments(t *testing.T) {
	trace := firstOrder([]float64{0.5, 0.2}, 1000, 0.005, 0.2)

	steps := StepResponses(trace, 0.01)
	if len(steps) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(steps))
	}

	up := steps[0]
	if up.Target != 0.5 || math.Abs(up.StartAngle) > 0.05 {
		t.Errorf("first segment endpoints wrong: %+v", up)
	}
	// First order relaxation: 10-90% rise is tau*ln(9).
	wantRise := 0.2 * math.Log(9)
	if math.Abs(up.RiseTime-wantRise) > 0.05 {
		t.Errorf("rise time %.3f, expected about %.3f", up.RiseTime, wantRise)
	}
	if up.Overshoot > 0.001 {
		t.Errorf("unexpected overshoot %.4f", up.Overshoot)
	}
	if math.IsNaN(up.SettlingTime) || up.SettlingTime <= 0 {
		t.Errorf("expected a settling time, got %f", up.SettlingTime)
	}
	if math.Abs(up.FinalError) > 0.01 {
		t.Errorf("final error %.4f too large", up.FinalError)
	}

	down := steps[1]
	if down.Target != 0.2 {
		t.Errorf("second segment target %.3f", down.Target)
	}
}

func TestStepResponsesSkipsTinyMoves(t *testing.T) {
	trace := firstOrder([]float64{0.005}, 200, 0.005, 0.2)
	if steps := StepResponses(trace, 0.01); len(steps) != 0 {
		t.Errorf("expected tiny move to be skipped, got %d segments", len(steps))
	}
}

func TestStepResponseNeverSettles(t *testing.T) {
	// Hold a constant offset from the target: no settling time.
	var trace []sim.Sample
	for i := 0; i < 100; i++ {
		trace = append(trace, sim.Sample{T: float64(i) * 0.005, Angle: 0.4, Desired: 0.5})
	}
	trace[0].Angle = 0 // make the step size real

	steps := StepResponses(trace, 0.01)
	if len(steps) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(steps))
	}
	if !math.IsNaN(steps[0].SettlingTime) {
		t.Errorf("expected NaN settling time, got %f", steps[0].SettlingTime)
	}
}

func TestPhasePortraitDrawsTrajectory(t *testing.T) {
	trace := firstOrder([]float64{0.5}, 500, 0.005, 0.2)

	plot := PhasePortrait(trace, 40, 12)
	if !strings.ContainsRune(plot, '•') {
		t.Error("expected trajectory points in the plot")
	}
	if len(strings.Split(strings.TrimRight(plot, "\n"), "\n")) != 12 {
		t.Error("expected 12 rows")
	}
}

func TestPhasePortraitEmptyTrace(t *testing.T) {
	if PhasePortrait(nil, 40, 12) != "" {
		t.Error("expected empty plot for empty trace")
	}
}
