package lift

import (
	"math"
	"math/rand"
	"testing"
)

const (
	benchDt = 0.005

	// The bench motor is an instant velocity source: vel = gain * power.
	benchMotorGain = 5.0
)

// bench runs a Controller against a minimal kinematic plant with hard
// stops at the travel limits.
type bench struct {
	c *Controller

	t     float64
	angle float64
	vel   float64

	stuck     bool
	sagging   bool
	held      bool
	hazard    bool
	carrying  bool
	onCharger bool

	events []Event
}

func newBench() *bench {
	b := &bench{c: New(benchDt)}
	b.c.SetEventSink(EventFunc(func(ev Event) {
		b.events = append(b.events, ev)
	}))
	return b
}

func (b *bench) tick() {
	prev := b.angle
	switch {
	case b.stuck:
		b.vel = 0
	case b.sagging && b.c.GetPower() == 0:
		// A carried load pulls the unpowered arm down.
		b.vel = -0.4
		b.angle += b.vel * benchDt
	default:
		b.vel = benchMotorGain * b.c.GetPower()
		b.angle += b.vel * benchDt
	}
	if b.angle <= MinAngle {
		b.angle = MinAngle
		if b.vel < 0 {
			b.vel = 0
		}
	}
	if b.angle >= MaxAngle {
		b.angle = MaxAngle
		if b.vel > 0 {
			b.vel = 0
		}
	}
	b.t += benchDt
	b.c.Tick(TickInput{
		EncoderDelta:  b.angle - prev,
		MeasuredSpeed: b.vel,
		Held:          b.held,
		Hazard:        b.hazard,
		Carrying:      b.carrying,
		OnCharger:     b.onCharger,
		Now:           b.t,
	})
}

func (b *bench) run(ticks int) {
	for i := 0; i < ticks; i++ {
		b.tick()
	}
}

func (b *bench) runUntil(ticks int, cond func() bool) bool {
	for i := 0; i < ticks; i++ {
		b.tick()
		if cond() {
			return true
		}
	}
	return false
}

func (b *bench) calibrate(t *testing.T) {
	t.Helper()
	b.c.StartCalibration(false, ReasonStartup)
	if !b.runUntil(2000, b.c.IsCalibrated) {
		t.Fatal("calibration did not complete")
	}
}

func (b *bench) countEvents(kind EventKind) int {
	n := 0
	for _, ev := range b.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestUncalibratedProducesNoPower(t *testing.T) {
	b := newBench()
	b.c.SetDesiredAngle(0.5, 2.0, 10.0, true)
	b.run(100)
	if b.c.GetPower() != 0 {
		t.Errorf("uncalibrated joint produced power %f", b.c.GetPower())
	}
	if b.c.IsCalibrated() {
		t.Error("joint should not report calibrated")
	}
}

func TestCalibrationEstablishesReference(t *testing.T) {
	b := newBench()
	b.calibrate(t)

	if b.c.IsCalibrating() {
		t.Error("still calibrating after completion")
	}
	if b.c.GetAngleRad() != MinAngle {
		t.Errorf("expected angle %f after calibration, got %f", MinAngle, b.c.GetAngleRad())
	}
	if !b.c.IsInPosition() {
		t.Error("joint should be in position at the latched reference")
	}
	if got := b.countEvents(EventCalibrationComplete); got != 1 {
		t.Errorf("expected 1 completion event, got %d", got)
	}
}

func TestStepToUpperLimit(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.c.SetDesiredAngle(MaxAngle, 2.0, 10.0, true)

	prev := b.c.GetAngleRad()
	peakSpeed := 0.0
	reached := false
	for i := 0; i < 2000 && !reached; i++ {
		b.tick()
		a := b.c.GetAngleRad()
		if a < prev-1e-9 {
			t.Fatalf("angle regressed %f -> %f before reaching goal", prev, a)
		}
		prev = a
		if s := math.Abs(b.c.GetAngularVelocity()); s > peakSpeed {
			peakSpeed = s
		}
		reached = math.Abs(a-MaxAngle) < angleTolerance
	}
	if !reached {
		t.Fatal("never reached the upper limit")
	}
	if peakSpeed < 0.5 {
		t.Errorf("velocity never ramped up: peak %f", peakSpeed)
	}
	if !b.runUntil(500, b.c.IsInPosition) {
		t.Fatal("never settled in position")
	}
	if err := math.Abs(b.c.GetAngleRad() - MaxAngle); err >= angleTolerance {
		t.Errorf("final error %f not within tolerance", err)
	}
}

func TestSnapToTarget(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.c.SetDesiredAngle(0.3, 2.0, 10.0, false)

	b.tick()
	// Without profiling the setpoint jumps straight to the goal.
	if b.c.GetDesiredAngleRad() != 0.3 {
		t.Errorf("expected desired angle 0.3, got %f", b.c.GetDesiredAngleRad())
	}
	if !b.runUntil(1500, b.c.IsInPosition) {
		t.Fatal("never settled at snapped target")
	}
	if err := math.Abs(b.c.GetAngleRad() - 0.3); err >= angleTolerance {
		t.Errorf("final error %f not within tolerance", err)
	}
}

func TestDesiredAngleClippedToLimits(t *testing.T) {
	b := newBench()
	b.calibrate(t)

	b.c.SetDesiredAngle(10.0, 2.0, 10.0, true)
	if b.c.GetDesiredAngleRad() != MaxAngle {
		t.Errorf("expected clip to %f, got %f", MaxAngle, b.c.GetDesiredAngleRad())
	}
	b.c.SetDesiredAngle(-10.0, 2.0, 10.0, true)
	if b.c.GetDesiredAngleRad() != MinAngle {
		t.Errorf("expected clip to %f, got %f", MinAngle, b.c.GetDesiredAngleRad())
	}
}

func TestFixedDurationMove(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.c.SetDesiredAngleByDuration(0.5, 0.25, 0.25, 1.0)

	if got := b.countEvents(EventProfileFallback); got != 0 {
		t.Fatalf("feasible plan fell back (%d events)", got)
	}
	if !b.runUntil(800, b.c.IsInPosition) {
		t.Fatal("never settled")
	}
	if err := math.Abs(b.c.GetAngleRad() - 0.5); err >= angleTolerance {
		t.Errorf("final error %f not within tolerance", err)
	}
}

func TestFixedDurationFallback(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	// 0.7 rad in 10 ms is far beyond the speed limit.
	b.c.SetDesiredAngleByDuration(0.5, 0.25, 0.25, 0.01)

	if got := b.countEvents(EventProfileFallback); got != 1 {
		t.Fatalf("expected 1 fallback event, got %d", got)
	}
	// The move still completes on the bounded profile.
	if !b.runUntil(2000, b.c.IsInPosition) {
		t.Fatal("fallback move never settled")
	}
	if err := math.Abs(b.c.GetAngleRad() - 0.5); err >= angleTolerance {
		t.Errorf("final error %f not within tolerance", err)
	}
}

func TestStopHoldsCurrentAngle(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.c.SetDesiredAngle(MaxAngle, 2.0, 10.0, true)
	b.run(60)
	if !b.c.IsMoving() {
		t.Fatal("expected motion before stop")
	}

	b.c.Stop()
	stopGoal := b.c.GetDesiredAngleRad()
	if math.Abs(stopGoal-b.c.GetAngleRad()) > 0.01 {
		t.Errorf("stop goal %f far from angle %f", stopGoal, b.c.GetAngleRad())
	}
	if !b.runUntil(1000, b.c.IsInPosition) {
		t.Fatal("never settled after stop")
	}
	if math.Abs(b.c.GetAngleRad()-stopGoal) >= angleTolerance {
		t.Errorf("drifted from stop goal: %f vs %f", b.c.GetAngleRad(), stopGoal)
	}
}

func TestIntegralStaysBounded(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.stuck = true
	b.c.SetDesiredAngle(MaxAngle, 0, 0, false)

	for i := 0; i < 300; i++ {
		b.tick()
		if math.Abs(b.c.pid.integral) > b.c.pid.maxIntegral+1e-9 {
			t.Fatalf("integral %f exceeds bound %f", b.c.pid.integral, b.c.pid.maxIntegral)
		}
	}
	if b.c.pid.integral != b.c.pid.maxIntegral {
		t.Errorf("expected integral pinned at %f, got %f", b.c.pid.maxIntegral, b.c.pid.integral)
	}
}

func TestIntegralResetOnlyWhenInPosition(t *testing.T) {
	b := newBench()
	b.calibrate(t)

	// Mid-flight command keeps the accumulator.
	b.c.SetDesiredAngle(MaxAngle, 2.0, 10.0, true)
	b.run(60)
	b.c.pid.integral = 1.5
	b.c.SetDesiredAngle(0.1, 2.0, 10.0, true)
	if b.c.pid.integral != 1.5 {
		t.Errorf("mid-flight command reset integral: %f", b.c.pid.integral)
	}

	// Command from rest resets it.
	if !b.runUntil(2000, b.c.IsInPosition) {
		t.Fatal("never settled")
	}
	b.c.pid.integral = 1.5
	b.c.SetDesiredAngle(0.4, 2.0, 10.0, true)
	if b.c.pid.integral != 0 {
		t.Errorf("command from rest kept integral: %f", b.c.pid.integral)
	}
}

func TestPowerAlwaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := newBench()
	b.calibrate(t)
	b.c.Enable()

	for i := 0; i < 20000; i++ {
		if i%37 == 0 {
			switch rng.Intn(12) {
			case 0:
				b.c.SetDesiredAngle(rng.Float64()*3-1, rng.Float64()*20, rng.Float64()*5000, rng.Intn(2) == 0)
			case 1:
				b.c.SetDesiredAngleByDuration(rng.Float64(), 0.25, 0.25, rng.Float64())
			case 2:
				b.c.SetAngularVelocity(rng.Float64()*4-2, rng.Float64()*100)
			case 3:
				b.c.Brace()
			case 4:
				b.c.Unbrace()
			case 5:
				b.c.Disable(rng.Intn(2) == 0)
			case 6:
				b.c.Enable()
			case 7:
				b.c.StartCalibration(true, ReasonManual)
			case 8:
				b.c.CheckForLoad(nil)
			case 9:
				b.c.Stop()
			case 10:
				b.stuck = rng.Intn(2) == 0
			case 11:
				b.held = rng.Intn(2) == 0
				b.onCharger = rng.Intn(3) == 0
			}
		}
		b.tick()
		if p := b.c.GetPower(); math.Abs(p) > 1.0 {
			t.Fatalf("tick %d: power %f out of bounds", i, p)
		}
		if d := b.c.GetDesiredAngleRad(); d < MinAngle-1e-9 || d > MaxAngle+1e-9 {
			t.Fatalf("tick %d: desired angle %f outside limits", i, d)
		}
		if math.IsNaN(b.c.GetPower()) || math.IsNaN(b.c.GetAngleRad()) {
			t.Fatalf("tick %d: NaN leaked into controller state", i)
		}
	}
}

func TestAlreadyAtTargetIsNoOp(t *testing.T) {
	b := newBench()
	b.calibrate(t)
	b.c.SetDesiredAngle(0.3, 2.0, 10.0, true)
	if !b.runUntil(2000, b.c.IsInPosition) {
		t.Fatal("never settled")
	}

	b.c.SetDesiredAngle(0.3, 2.0, 10.0, true)
	if !b.c.IsInPosition() {
		t.Error("re-command of the current target should not leave position")
	}
}

func TestHeightAPI(t *testing.T) {
	b := newBench()
	b.calibrate(t)

	b.c.SetDesiredHeight(70.0, 2.0, 10.0, true)
	want := AngleForHeightMM(70.0)
	if math.Abs(b.c.GetDesiredAngleRad()-want) > 1e-12 {
		t.Errorf("expected desired angle %f, got %f", want, b.c.GetDesiredAngleRad())
	}
	if !b.runUntil(2000, b.c.IsInPosition) {
		t.Fatal("never settled")
	}
	if math.Abs(b.c.GetHeightMM()-70.0) > 1.0 {
		t.Errorf("expected height near 70mm, got %f", b.c.GetHeightMM())
	}
}
