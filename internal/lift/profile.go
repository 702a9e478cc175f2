package lift

import "math"

// snapBound stands in for "no limit" when a command wants the setpoint to
// jump straight to the target instead of following a feasible trajectory.
const snapBound = 1e6

type profileMode int

const (
	profileIdle profileMode = iota
	profileBounded
	profileTimed
)

// profile generates a trapezoidal position/velocity setpoint each tick,
// either bounded by speed/accel limits or squeezed into a fixed duration.
type profile struct {
	dt   float64
	mode profileMode

	pos  float64
	vel  float64
	goal float64

	maxSpeed float64
	accel    float64

	// fixed-duration plan
	elapsed   float64
	accelTime float64
	decelTime float64
	duration  float64
	cruiseVel float64
	startVel  float64
}

func newProfile(dt float64) *profile {
	return &profile{dt: dt}
}

func (p *profile) done() bool {
	return p.mode == profileIdle
}

// reset collapses the setpoint to a single angle with no active plan.
func (p *profile) reset(angle float64) {
	p.mode = profileIdle
	p.pos = angle
	p.vel = 0
}

func (p *profile) start(pos, vel, goal, maxSpeed, accel float64) {
	p.mode = profileBounded
	p.pos = pos
	p.vel = vel
	p.goal = goal
	p.maxSpeed = math.Abs(maxSpeed)
	p.accel = math.Abs(accel)
}

// startFixedDuration plans a trapezoid that covers the move in exactly
// duration seconds, ramping for accelTime at the start and decelTime at the
// end. It returns false when no cruise velocity within the speed and accel
// limits can cover the distance; the caller then falls back to start().
func (p *profile) startFixedDuration(pos, vel, accelTime, goal, decelTime, maxSpeed, maxAccel, duration float64) bool {
	if duration <= 0 || accelTime <= 0 || decelTime <= 0 || accelTime+decelTime > duration {
		return false
	}
	cruiseTime := duration - accelTime - decelTime

	// Distance covered is the area under the velocity trapezoid:
	// ramp vel->cruise over accelTime, hold, ramp cruise->0 over decelTime.
	denom := accelTime/2 + cruiseTime + decelTime/2
	cruise := (goal - pos - vel*accelTime/2) / denom

	if math.Abs(cruise) > math.Abs(maxSpeed) {
		return false
	}
	if math.Abs(cruise-vel)/accelTime > math.Abs(maxAccel) {
		return false
	}
	if math.Abs(cruise)/decelTime > math.Abs(maxAccel) {
		return false
	}

	p.mode = profileTimed
	p.pos = pos
	p.vel = vel
	p.goal = goal
	p.elapsed = 0
	p.accelTime = accelTime
	p.decelTime = decelTime
	p.duration = duration
	p.cruiseVel = cruise
	p.startVel = vel
	return true
}

// step advances the setpoint one tick and returns the new intermediate
// (velocity, position) pair. Once the goal is reached the profile goes
// idle and step keeps returning the goal with zero velocity.
func (p *profile) step() (float64, float64) {
	switch p.mode {
	case profileBounded:
		return p.stepBounded()
	case profileTimed:
		return p.stepTimed()
	default:
		return 0, p.pos
	}
}

func (p *profile) stepBounded() (float64, float64) {
	dir := 1.0
	if p.goal < p.pos {
		dir = -1.0
	}
	remaining := math.Abs(p.goal - p.pos)

	// Fastest speed from which the remaining travel still suffices to stop.
	stopSpeed := math.Sqrt(2 * p.accel * remaining)
	target := dir * math.Min(p.maxSpeed, stopSpeed)

	dv := clip(target-p.vel, -p.accel*p.dt, p.accel*p.dt)
	p.vel += dv
	p.pos += p.vel * p.dt

	if (dir > 0 && p.pos >= p.goal) || (dir < 0 && p.pos <= p.goal) {
		p.pos = p.goal
		p.vel = 0
		p.mode = profileIdle
	}
	return p.vel, p.pos
}

func (p *profile) stepTimed() (float64, float64) {
	p.elapsed += p.dt
	t := p.elapsed
	if t >= p.duration {
		p.pos = p.goal
		p.vel = 0
		p.mode = profileIdle
		return 0, p.pos
	}
	switch {
	case t < p.accelTime:
		p.vel = p.startVel + (p.cruiseVel-p.startVel)*t/p.accelTime
	case t < p.duration-p.decelTime:
		p.vel = p.cruiseVel
	default:
		p.vel = p.cruiseVel * (p.duration - t) / p.decelTime
	}
	p.pos += p.vel * p.dt
	return p.vel, p.pos
}
