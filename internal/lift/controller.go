package lift

import "math"

// TickInput is the read-only sensor sample consumed on every tick.
type TickInput struct {
	// EncoderDelta is the joint rotation since the previous tick, rad.
	EncoderDelta float64
	// MeasuredSpeed is the raw encoder speed, rad/s.
	MeasuredSpeed float64
	// EncoderInvalid reports an implausible encoder reading; the joint
	// counts as uncalibrated until the next completed calibration.
	EncoderInvalid bool

	Held      bool
	Hazard    bool
	Carrying  bool
	OnCharger bool

	// Now is a monotonic timestamp in seconds.
	Now float64
}

// Controller is the closed-loop position controller for one lift joint.
// It is single-threaded and cooperative: Tick runs once per control period
// and always completes within it; commands issued between ticks mutate
// state immediately and take effect on the next tick.
type Controller struct {
	dt float64

	est  estimator
	prof *profile
	pid  *pid
	cal  *calibrator
	saf  safety

	// desiredAngle is the final goal, always within the travel limits;
	// the profile position is the intermediate setpoint tracking it.
	desiredAngle float64
	maxSpeed     float64
	accel        float64

	inPosition      bool
	inPositionSince float64

	isCalibrated     bool
	encoderInvalid   bool
	encoderInvalidAt float64

	power     float64
	now       float64
	onCharger bool

	sink EventSink
}

// New returns a controller ticking at period dt seconds. A dt of zero
// selects DefaultTickPeriod.
func New(dt float64) *Controller {
	if dt <= 0 {
		dt = DefaultTickPeriod
	}
	c := &Controller{
		dt:       dt,
		prof:     newProfile(dt),
		pid:      newPID(),
		cal:      newCalibrator(),
		maxSpeed: defaultMaxSpeed,
		accel:    defaultAccel,
	}
	c.saf.enabled = true
	c.saf.enabledExternally = true
	c.inPosition = true
	return c
}

// SetEventSink directs diagnostic events to sink. A nil sink drops them.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sink = sink
}

func (c *Controller) emit(ev Event) {
	if c.sink != nil {
		c.sink.Emit(ev)
	}
}

// Tick advances the controller one control period. The estimator runs
// first so the angle estimate never goes stale; while a calibration is
// active it owns the tick exclusively.
func (c *Controller) Tick(in TickInput) {
	c.now = in.Now
	c.onCharger = in.OnCharger

	c.est.update(in.EncoderDelta, in.MeasuredSpeed)

	if in.EncoderInvalid && !c.encoderInvalid {
		c.encoderInvalid = true
		c.encoderInvalidAt = in.Now
	}

	if c.cal.active() {
		c.calibrationTick(in.Now)
		return
	}

	if !c.IsCalibrated() {
		c.power = 0
		return
	}

	c.chargerTick(in)

	if !c.saf.enabled {
		if !c.disabledTick(in) {
			return
		}
	}

	if c.saf.bracing || c.burnoutProtection(in) {
		c.unbraceTick(in.Now)
		return
	}

	if c.loadCheckTick(in.Now) {
		return
	}

	c.trackTick(in)
}

// trackTick advances the motion profile and computes the PID power.
func (c *Controller) trackTick(in TickInput) {
	currDesired := c.prof.pos
	if !c.prof.done() {
		_, currDesired = c.prof.step()
	}

	err := currDesired - c.est.angle

	power := c.pid.compute(err, c.dt, c.nearLimitBand(currDesired))

	if math.Abs(err) < angleTolerance && c.prof.done() && currDesired == c.desiredAngle {
		// Tracking the final goal within tolerance.
		maxHold := maxHoldPower
		if in.Carrying {
			maxHold = maxHoldPowerWhileCarrying
		}
		if math.Abs(power) > maxHold {
			if power > 0 {
				c.pid.integral -= integralDecayStep
			} else {
				c.pid.integral += integralDecayStep
			}
		} else if c.saf.loadCheckArmed && !c.IsMoving() {
			c.saf.loadCheckStart = in.Now
			c.saf.loadCheckAngle = c.est.angle
			power = 0
		}

		if c.inPositionSince == 0 {
			c.inPositionSince = in.Now
		} else if in.Now-c.inPositionSince > inPositionDwell {
			c.inPosition = true
		}
	} else {
		c.inPositionSince = 0
		c.inPosition = false
		// The accumulator only winds while out of position.
		c.pid.integral += err
	}

	c.pid.clampIntegral()
	c.pid.prevErr = err

	c.power = clip(power, -1, 1)
}

// nearLimitBand reports whether both the measured and setpoint angles sit
// inside the no-D band adjacent to either travel limit.
func (c *Controller) nearLimitBand(desired float64) bool {
	inBand := func(v, lo, hi float64) bool { return v >= lo && v <= hi }
	low := inBand(c.est.angle, MinAngle, MinAngle+noDTermBand) &&
		inBand(desired, MinAngle, MinAngle+noDTermBand)
	high := inBand(c.est.angle, MaxAngle-noDTermBand, MaxAngle) &&
		inBand(desired, MaxAngle-noDTermBand, MaxAngle)
	return low || high
}

// SetDesiredAngle commands a move to angle (rad) bounded by maxSpeed and
// accel. With useProfile false the setpoint snaps straight to the target.
// Zero speed or accel selects the mechanism maximum.
func (c *Controller) SetDesiredAngle(angle, maxSpeed, accel float64, useProfile bool) {
	c.setDesired(angle, defaultAccelFrac, defaultAccelFrac, 0, maxSpeed, accel, useProfile)
}

// SetDesiredAngleByDuration commands a move to angle that takes exactly
// duration seconds, accelerating for accStartFrac*duration and
// decelerating for accEndFrac*duration. An infeasible plan silently falls
// back to a speed/accel-bounded move.
func (c *Controller) SetDesiredAngleByDuration(angle, accStartFrac, accEndFrac, duration float64) {
	c.setDesired(angle, accStartFrac, accEndFrac, duration, maxSpeedLimit, maxAccelLimit, true)
}

// SetDesiredHeight is SetDesiredAngle in gripper-height terms.
func (c *Controller) SetDesiredHeight(heightMM, maxSpeed, accel float64, useProfile bool) {
	c.SetDesiredAngle(AngleForHeightMM(heightMM), maxSpeed, accel, useProfile)
}

// SetDesiredHeightByDuration is SetDesiredAngleByDuration in gripper-height
// terms.
func (c *Controller) SetDesiredHeightByDuration(heightMM, accStartFrac, accEndFrac, duration float64) {
	c.SetDesiredAngleByDuration(AngleForHeightMM(heightMM), accStartFrac, accEndFrac, duration)
}

// SetAngularVelocity drives toward the travel limit in the direction of
// speed's sign, or stops immediately when speed is zero.
func (c *Controller) SetAngularVelocity(speed, accel float64) {
	useProfile := true
	var target float64
	switch {
	case speed > 0:
		target = MaxAngle
	case speed < 0:
		target = MinAngle
	default:
		target = c.est.angle
		useProfile = false
	}
	c.SetDesiredAngle(target, speed, accel, useProfile)
}

// Stop halts the joint at its current angle, bypassing accel limiting.
func (c *Controller) Stop() {
	c.SetAngularVelocity(0, 0)
}

func (c *Controller) setDesired(angle, accStartFrac, accEndFrac, duration, maxSpeed, accel float64, useProfile bool) {
	// A motion commanded while charging wakes the motor back up, as long
	// as the caller has not explicitly disabled it.
	if c.onCharger && c.saf.enabledExternally {
		c.enableInternal()
	}

	if !c.saf.enabled || c.saf.bracing {
		return
	}

	c.setSpeedLimits(maxSpeed, accel)
	goal := clip(angle, MinAngle, MaxAngle)

	if c.inPosition && goal == c.desiredAngle &&
		math.Abs(c.desiredAngle-c.est.angle) < angleTolerance {
		return
	}
	c.desiredAngle = goal

	startVel := c.est.speed
	startPos := c.prof.pos
	if c.inPosition {
		// Fresh accumulator when starting from rest; short moves are
		// otherwise overpowered by the unwinding of accumulated error.
		c.pid.integral = 0
	}
	c.inPositionSince = 0
	c.inPosition = false

	started := false
	if duration > 0 {
		started = c.prof.startFixedDuration(startPos, startVel,
			accStartFrac*duration, goal, accEndFrac*duration,
			maxSpeedLimit, maxAccelLimit, duration)
		if !started {
			c.emit(Event{
				Kind:     EventProfileFallback,
				Duration: duration,
				Detail:   "fixed-duration profile infeasible",
			})
		}
	}
	if !started {
		speed, acc := c.maxSpeed, c.accel
		if !useProfile {
			speed, acc = snapBound, snapBound
		}
		c.prof.start(startPos, startVel, goal, speed, acc)
	}
}

func (c *Controller) setSpeedLimits(maxSpeed, accel float64) {
	maxSpeed = math.Abs(maxSpeed)
	accel = math.Abs(accel)
	if maxSpeed < 1e-9 {
		maxSpeed = maxSpeedLimit
	}
	if accel < 1e-9 {
		accel = maxAccelLimit
	}
	c.maxSpeed = clip(maxSpeed, 0, maxSpeedLimit)
	c.accel = clip(accel, 0, maxAccelLimit)
}

// StartCalibration begins a calibration run toward the low hard stop.
func (c *Controller) StartCalibration(autoStarted bool, reason CalibrationReason) {
	c.cal.begin(reason)
	c.isCalibrated = false
	c.inPosition = false
	c.inPositionSince = 0
	c.saf.burnoutStart = 0
	c.pid.integral = 0

	detail := "requested"
	if autoStarted {
		detail = "auto"
	}
	c.emit(Event{Kind: EventCalibrationStarted, Reason: reason, Detail: detail})
}

// ResetAnglePosition collapses the current, desired, and setpoint angles
// to one value. Used at calibration completion, unbrace completion, and
// re-enable.
func (c *Controller) ResetAnglePosition(angle float64) {
	c.est.angle = angle
	c.desiredAngle = angle
	c.prof.reset(angle)
}

// SetGains replaces the PID gains and the integral bound. The burnout
// power threshold derives from these.
func (c *Controller) SetGains(kp, ki, kd, maxIntegralError float64) {
	c.pid.setGains(kp, ki, kd, maxIntegralError)
}

// SetEncoderInvalid marks the encoder as untrustworthy; the joint counts
// as uncalibrated until the next completed calibration.
func (c *Controller) SetEncoderInvalid() {
	if !c.encoderInvalid {
		c.encoderInvalid = true
		c.encoderInvalidAt = c.now
	}
}

func (c *Controller) IsEncoderInvalid() bool { return c.encoderInvalid }

// ClearCalibration forgets the zero reference without starting a new
// calibration.
func (c *Controller) ClearCalibration() { c.isCalibrated = false }

// IsCalibrated reports whether the joint has a trustworthy zero reference.
func (c *Controller) IsCalibrated() bool {
	return c.isCalibrated && !c.encoderInvalid
}

func (c *Controller) IsCalibrating() bool { return c.cal.active() }

// IsInPosition reports the debounced in-position condition: tracking error
// has stayed within tolerance for the dwell time.
func (c *Controller) IsInPosition() bool { return c.inPosition }

func (c *Controller) IsMoving() bool {
	return math.Abs(c.est.speed) > stoppedSpeed
}

func (c *Controller) GetAngleRad() float64 { return c.est.angle }

func (c *Controller) GetHeightMM() float64 {
	return HeightMMForAngle(c.est.angle)
}

func (c *Controller) GetDesiredAngleRad() float64 { return c.desiredAngle }

func (c *Controller) GetDesiredHeightMM() float64 {
	return HeightMMForAngle(c.desiredAngle)
}

func (c *Controller) GetAngularVelocity() float64 { return c.est.speed }

// GetPower returns the motor power command, always within [-1, 1].
func (c *Controller) GetPower() float64 { return c.power }
