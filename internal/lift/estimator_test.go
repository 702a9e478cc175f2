package lift

import (
	"math"
	"testing"
)

func TestEstimatorIntegratesDeltas(t *testing.T) {
	var e estimator
	for i := 0; i < 10; i++ {
		e.update(0.01, 0)
	}
	if math.Abs(e.angle-0.1) > 1e-12 {
		t.Errorf("expected angle 0.1, got %f", e.angle)
	}
}

func TestEstimatorSpeedFilter(t *testing.T) {
	var e estimator

	e.update(0, 1.0)
	want := 1.0 * (1.0 - speedFilterCoeff)
	if math.Abs(e.speed-want) > 1e-12 {
		t.Errorf("expected one-step speed %f, got %f", want, e.speed)
	}

	// A constant measured speed converges to itself.
	for i := 0; i < 500; i++ {
		e.update(0, 1.0)
	}
	if math.Abs(e.speed-1.0) > 1e-6 {
		t.Errorf("filter did not converge: %f", e.speed)
	}
}

func TestAngleHeightConversion(t *testing.T) {
	for _, h := range []float64{minHeightMM, 45.0, 60.0, maxHeightMM} {
		got := HeightMMForAngle(AngleForHeightMM(h))
		if math.Abs(got-h) > 1e-9 {
			t.Errorf("height %f round-tripped to %f", h, got)
		}
	}
	if MinAngle >= MaxAngle {
		t.Errorf("travel limits inverted: [%f, %f]", MinAngle, MaxAngle)
	}
}

func TestAngleForHeightSaturates(t *testing.T) {
	lo := AngleForHeightMM(-1000)
	hi := AngleForHeightMM(1000)
	if lo != -math.Pi/2 || hi != math.Pi/2 {
		t.Errorf("expected saturation at +-pi/2, got %f, %f", lo, hi)
	}
}
