package lift

// Default gains for the stock mechanism.
const (
	defaultKp          = 3.0
	defaultKi          = 0.1
	defaultKd          = 0.075
	defaultMaxIntegral = 5.0
)

// Tracking tolerance and the dwell the error must hold it for before the
// joint counts as in position.
const (
	angleTolerance  = 0.01 // rad
	inPositionDwell = 0.1  // s
)

// While in position the accumulator bleeds off whenever holding power
// exceeds what the mechanism plausibly needs, to keep the motor cool. The
// allowance is higher with a carried load.
const (
	integralDecayStep         = 0.02
	maxHoldPower              = 0.1
	maxHoldPowerWhileCarrying = 0.24
)

// The D term is dropped when both the measured and setpoint angles sit
// within this band of either travel limit; it buzzes against the hard
// stops otherwise.
const noDTermBand = 0.0873 // 5 deg

type pid struct {
	kp          float64
	ki          float64
	kd          float64
	maxIntegral float64

	integral float64
	prevErr  float64
}

func newPID() *pid {
	return &pid{
		kp:          defaultKp,
		ki:          defaultKi,
		kd:          defaultKd,
		maxIntegral: defaultMaxIntegral,
	}
}

func (p *pid) setGains(kp, ki, kd, maxIntegral float64) {
	p.kp = kp
	p.ki = ki
	p.kd = kd
	p.maxIntegral = maxIntegral
}

// burnoutThreshold is the highest power steady-state tracking can justify;
// anything above it sustained for long means the motor is fighting
// something it cannot move.
func (p *pid) burnoutThreshold() float64 {
	return p.ki*p.maxIntegral + p.kp*angleTolerance
}

// compute returns the unclamped power for the current tracking error. The
// caller decides whether the D term applies this tick.
func (p *pid) compute(err, dt float64, suppressD bool) float64 {
	power := p.kp*err + p.ki*p.integral
	if !suppressD && dt > 0 {
		power += p.kd * (err - p.prevErr) / dt
	}
	return power
}

func (p *pid) clampIntegral() {
	p.integral = clip(p.integral, -p.maxIntegral, p.maxIntegral)
}

func (p *pid) reset() {
	p.integral = 0
	p.prevErr = 0
}
