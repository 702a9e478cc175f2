package lift

// speedFilterCoeff weights the previous filtered speed; raw encoder speed
// is noisy at tick granularity.
const speedFilterCoeff = 0.9

// estimator integrates per-tick encoder deltas into the joint angle
// estimate and low-pass filters the measured speed.
type estimator struct {
	angle float64
	speed float64
}

// update runs every tick, including while the motor is disabled, so the
// angle estimate never goes stale.
func (e *estimator) update(encoderDelta, measuredSpeed float64) {
	e.angle += encoderDelta
	e.speed = measuredSpeed*(1.0-speedFilterCoeff) + e.speed*speedFilterCoeff
}
