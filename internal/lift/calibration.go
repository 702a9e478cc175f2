package lift

import "math"

type calibState int

const (
	calibIdle calibState = iota
	calibLowering
	calibWaitForStop
	calibLatchZero
	calibComplete
)

const (
	// Power applied toward the low hard stop while calibrating.
	calibPower = -0.4

	// The joint must read stopped for this long before hard-stop contact
	// is assumed.
	stopDwell = 0.5 // s

	// Unpowered settle before latching the reference, to unwind backlash.
	relaxDelay = 0.25 // s

	stoppedSpeed = 0.001 // rad/s

	// Interference detection: the arm rising this far off the lowest point
	// seen, for this many consecutive ticks, means something external is
	// pulling on it. The tick count filters out bounce at the limit.
	interferenceRise  = 0.1745 // 10 deg
	interferenceTicks = 5
)

// calibrator drives the arm onto the low hard stop and latches the known
// angle there, re-establishing the zero reference for the incremental
// encoder.
type calibrator struct {
	state  calibState
	reason CalibrationReason

	// The first calibration after boot must finish; interference restarts
	// it. Later calibrations abort on interference instead, keeping the
	// prior reference.
	firstAttempt bool

	lastMovedAt float64
	lowAngle    float64
	riseTicks   int
}

func newCalibrator() *calibrator {
	return &calibrator{state: calibIdle, firstAttempt: true}
}

func (cl *calibrator) active() bool {
	return cl.state != calibIdle
}

func (cl *calibrator) begin(reason CalibrationReason) {
	cl.reason = reason
	cl.state = calibLowering
}

// calibrationTick runs the calibration state machine for one tick. While
// calibrating the machine owns the power output exclusively.
func (c *Controller) calibrationTick(now float64) {
	// Up to two transitions may fire on one tick: LatchZero completes and
	// finalizes in the same tick once the relax delay has elapsed.
	c.calibrationStep(now)
	if c.cal.state == calibComplete {
		c.calibrationStep(now)
	}
	if c.cal.active() {
		c.checkCalibrationInterference(now)
	}
}

func (c *Controller) calibrationStep(now float64) {
	cl := c.cal
	switch cl.state {
	case calibLowering:
		c.power = calibPower
		cl.lastMovedAt = now
		cl.lowAngle = c.est.angle
		cl.riseTicks = 0
		cl.state = calibWaitForStop

	case calibWaitForStop:
		c.power = calibPower
		if c.IsMoving() {
			cl.lastMovedAt = now
		} else if now-cl.lastMovedAt > stopDwell {
			// Contact. Cut power and let the mechanism settle before the
			// reference is latched.
			c.power = 0
			cl.lastMovedAt = now
			cl.state = calibLatchZero
		}

	case calibLatchZero:
		c.power = 0
		if now-cl.lastMovedAt > relaxDelay {
			c.latchCalibration(now)
			cl.state = calibComplete
		}

	case calibComplete:
		c.power = 0
		c.isCalibrated = true
		c.encoderInvalid = false
		c.inPosition = true
		c.inPositionSince = 0
		cl.firstAttempt = false
		cl.state = calibIdle
	}
}

// latchCalibration records the hard-stop angle as the new reference and
// emits the completion event with the size of the correction.
func (c *Controller) latchCalibration(now float64) {
	prev := c.est.angle
	uncalibratedFor := 0.0
	if c.encoderInvalid {
		uncalibratedFor = now - c.encoderInvalidAt
	}
	c.ResetAnglePosition(MinAngle)
	c.pid.reset()

	c.emit(Event{
		Kind:      EventCalibrationComplete,
		Reason:    c.cal.reason,
		Magnitude: (prev - MinAngle) * 180 / math.Pi * 1000, // millidegrees
		Duration:  uncalibratedFor,
	})
}

// checkCalibrationInterference watches for the arm moving up while it is
// supposed to be lowering.
func (c *Controller) checkCalibrationInterference(now float64) {
	cl := c.cal
	if c.est.angle < cl.lowAngle {
		cl.lowAngle = c.est.angle
	}
	if c.est.angle-cl.lowAngle <= interferenceRise {
		cl.riseTicks = 0
		return
	}
	cl.riseTicks++
	if cl.riseTicks < interferenceTicks {
		return
	}

	rise := c.est.angle - cl.lowAngle
	if cl.firstAttempt {
		// No prior reference exists, so the only option is to try again.
		c.emit(Event{Kind: EventCalibrationRestarted, Reason: cl.reason, Magnitude: rise})
		cl.state = calibLowering
	} else {
		// Keep whatever reference the estimate currently implies and
		// finish; the joint stays usable.
		c.emit(Event{Kind: EventCalibrationAborted, Reason: cl.reason, Magnitude: rise})
		c.ResetAnglePosition(c.est.angle)
		c.pid.reset()
		cl.state = calibComplete
	}
}
