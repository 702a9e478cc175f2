package lift

import "math"

const (
	// Fixed power applied while bracing for an impact.
	bracePower = -0.8

	// After Unbrace the joint stays unpowered this long so the mechanism
	// can settle before tracking resumes.
	unbracePeriod = 0.2 // s

	// An auto-disabled motor re-enables after the joint has been
	// stationary this long.
	reenableTimeout = 2.0 // s

	// Sustained power above the gain-derived threshold for this long
	// triggers burnout protection.
	burnoutTime = 2.0 // s

	loadCheckTimeout     = 0.5     // s
	loadCheckDriftThresh = 0.01745 // 1 deg
)

// safety tracks the supervisor state: the dual enable flags, the burnout
// timer, brace/unbrace, and the load-detection probe.
type safety struct {
	// enabled is the effective motor enable; enabledExternally remembers
	// whether the caller asked for the motor to be on, which gates every
	// automatic re-enable. Explicit Disable clears both.
	enabled           bool
	enabledExternally bool

	// enableAt is the auto re-enable deadline; zero means none armed.
	enableAt float64

	// reenableRequested marks a Disable(autoReEnable=true): the caller
	// asked for the motor back even though it is not externally enabled.
	reenableRequested bool

	burnoutStart float64

	// bracing stays true through the unbrace settle window.
	bracing      bool
	unbraceStart float64

	loadCheckArmed bool
	loadCheckStart float64
	loadCheckAngle float64
	loadCheckFn    func(bool)
}

// Enable turns the motor on and marks it as externally wanted, which
// allows later automatic re-enables.
func (c *Controller) Enable() {
	c.saf.enabledExternally = true
	c.enableInternal()
}

func (c *Controller) enableInternal() {
	if !c.saf.enabled {
		c.saf.enabled = true
		c.saf.enableAt = 0
		c.saf.reenableRequested = false
		c.ResetAnglePosition(c.est.angle)
	}
}

// Disable turns the motor off. With autoReEnable the motor comes back on
// after the joint has been stationary past a timeout; without it the motor
// stays off until Enable. Disable always wins over any pending auto
// re-enable.
func (c *Controller) Disable(autoReEnable bool) {
	c.saf.enabledExternally = false
	c.saf.reenableRequested = autoReEnable
	c.disableInternal(autoReEnable)
}

func (c *Controller) disableInternal(autoReEnable bool) {
	s := &c.saf
	if s.enabled {
		s.enabled = false
		c.inPosition = true
		c.inPositionSince = 0
		c.pid.reset()
		if !c.IsCalibrating() {
			// Calibration owns the power output while active.
			c.power = 0
		}
		s.burnoutStart = 0
		s.bracing = false
		s.unbraceStart = 0
	}
	s.enableAt = 0
	if autoReEnable {
		s.enableAt = c.now + reenableTimeout
	}
}

// Brace overrides normal control with a fixed strong downward power ahead
// of an anticipated impact. New motion commands are ignored until the
// unbrace settle window has elapsed.
func (c *Controller) Brace() {
	c.power = bracePower
	c.saf.bracing = true
	c.saf.unbraceStart = 0
}

// Unbrace cuts power and starts the settle window; tracking resumes from
// the settled angle once the window elapses.
func (c *Controller) Unbrace() {
	c.power = 0
	c.saf.unbraceStart = c.now
}

func (c *Controller) IsBracing() bool {
	return c.saf.bracing
}

// CheckForLoad cuts power once the joint is in position and stationary,
// then watches for downward drift. The callback fires exactly once: true
// if the joint sagged past the drift threshold within the timeout, false
// otherwise.
func (c *Controller) CheckForLoad(fn func(bool)) {
	c.saf.loadCheckArmed = true
	c.saf.loadCheckStart = 0
	c.saf.loadCheckFn = fn
}

// chargerTick disables the motor while the robot sits on its charging
// contacts, so charge current does not fight a stalled holding torque.
// The armed re-enable deadline keeps sliding while charging continues.
func (c *Controller) chargerTick(in TickInput) {
	if c.inPosition && in.OnCharger {
		if c.saf.enabled {
			c.emit(Event{Kind: EventMotorAutoDisabled, Detail: "on charger"})
		}
		c.disableInternal(true)
	}
}

// disabledTick handles the auto re-enable countdown. It returns true when
// the motor was re-enabled this tick and control should continue.
func (c *Controller) disabledTick(in TickInput) bool {
	s := &c.saf
	if s.enableAt == 0 {
		return false
	}
	if c.IsMoving() {
		// Not until the joint is stationary.
		s.enableAt = in.Now + reenableTimeout
		return false
	}
	if (s.enabledExternally || s.reenableRequested) && in.Now >= s.enableAt {
		c.emit(Event{Kind: EventMotorAutoEnabled})
		goal := c.desiredAngle
		c.enableInternal()
		// Resume tracking the last commanded angle from wherever the
		// joint came to rest.
		c.SetDesiredAngle(goal, c.maxSpeed, c.accel, true)
		return true
	}
	return false
}

// burnoutProtection watches for sustained power above what healthy
// tracking can produce. Returns true when a protection action fired this
// tick.
func (c *Controller) burnoutProtection(in TickInput) bool {
	s := &c.saf
	if math.Abs(c.power) < c.pid.burnoutThreshold() {
		s.burnoutStart = 0
		return false
	}
	if s.burnoutStart == 0 {
		s.burnoutStart = in.Now
		return false
	}
	if in.Now-s.burnoutStart <= burnoutTime {
		return false
	}

	if c.inPosition || in.Held || in.Hazard {
		// Something external is loading the arm. Go limp until it stops.
		c.emit(Event{
			Kind:     EventMotorAutoDisabled,
			Duration: in.Now - s.burnoutStart,
			Detail:   "burnout protection",
		})
		c.disableInternal(true)
	} else {
		// Most likely miscalibrated and grinding against a travel limit.
		c.StartCalibration(true, ReasonBurnoutProtection)
	}
	return true
}

// unbraceTick ends the settle window and rebaselines tracking at the
// settled angle.
func (c *Controller) unbraceTick(now float64) {
	s := &c.saf
	if s.unbraceStart > 0 && now-s.unbraceStart > unbracePeriod {
		s.unbraceStart = 0
		s.bracing = false
		c.ResetAnglePosition(c.est.angle)
		c.pid.reset()
	}
}

// loadCheckTick runs an active probe. Returns true while the probe owns
// the power output.
func (c *Controller) loadCheckTick(now float64) bool {
	s := &c.saf
	if s.loadCheckStart == 0 {
		return false
	}
	switch {
	case c.est.angle < s.loadCheckAngle-loadCheckDriftThresh:
		c.finishLoadCheck(true, s.loadCheckAngle-c.est.angle, now-s.loadCheckStart)
	case now > s.loadCheckStart+loadCheckTimeout:
		c.finishLoadCheck(false, s.loadCheckAngle-c.est.angle, now-s.loadCheckStart)
	default:
		// Stay unpowered while probing.
		c.power = 0
		return true
	}
	return false
}

func (c *Controller) finishLoadCheck(loaded bool, drift, elapsed float64) {
	s := &c.saf
	s.loadCheckArmed = false
	s.loadCheckStart = 0
	fn := s.loadCheckFn
	s.loadCheckFn = nil

	detail := "no load"
	if loaded {
		detail = "load detected"
	}
	c.emit(Event{Kind: EventLoadCheck, Magnitude: drift, Duration: elapsed, Detail: detail})
	if fn != nil {
		fn(loaded)
	}
}
