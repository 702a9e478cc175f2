package sim

import (
	"math"

	"liftctl/internal/lift"
)

const (
	// Below this speed the joint counts as at rest for the static
	// friction model.
	restSpeed = 0.05 // rad/s
	// Time constant for bleeding off residual velocity at rest.
	restTau = 0.01 // s
)

// Plant models the lift joint: a geared motor driving an inertia against
// friction and the gravity moment of the arm, with hard stops at the
// travel limits. Torques are normalized so a power of 1 produces
// StallTorque.
//
// Static friction matters here: the gearbox holds an unloaded arm in
// place with the motor unpowered, but a carried load overcomes it and
// the arm sags. The load-detection probe depends on exactly that
// difference.
type Plant struct {
	Inertia       float64
	Damping       float64
	StallTorque   float64
	GravityTorque float64
	Stiction      float64

	// LoadTorque is the extra gravity moment of a carried object,
	// applied while Loaded.
	LoadTorque float64
	Loaded     bool
}

func NewPlant() *Plant {
	return &Plant{
		Inertia:       0.01,
		Damping:       0.3,
		StallTorque:   1.0,
		GravityTorque: 0.05,
		Stiction:      0.06,
		LoadTorque:    0.05,
	}
}

func (p *Plant) Derivative(s State, power float64, t float64) State {
	drive := p.StallTorque*power - p.GravityTorque*math.Cos(s.Angle)
	if p.Loaded {
		drive -= p.LoadTorque * math.Cos(s.Angle)
	}

	if math.Abs(s.Velocity) < restSpeed && math.Abs(drive) < p.Stiction {
		// At rest below the breakaway torque: the joint stays put.
		return State{Angle: s.Velocity, Velocity: -s.Velocity / restTau}
	}

	torque := drive - p.Damping*s.Velocity
	if s.Velocity > 0 {
		torque -= p.Stiction
	} else if s.Velocity < 0 {
		torque += p.Stiction
	}
	return State{Angle: s.Velocity, Velocity: torque / p.Inertia}
}

// Clamp enforces the hard stops. Contact kills any velocity directed
// into the stop.
func (p *Plant) Clamp(s State) State {
	if s.Angle <= lift.MinAngle {
		s.Angle = lift.MinAngle
		if s.Velocity < 0 {
			s.Velocity = 0
		}
	}
	if s.Angle >= lift.MaxAngle {
		s.Angle = lift.MaxAngle
		if s.Velocity > 0 {
			s.Velocity = 0
		}
	}
	return s
}
