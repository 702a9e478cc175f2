package sim

// RK4 is a classical fourth-order Runge-Kutta integrator. The power
// command is held constant across the step, matching a zero-order-hold
// motor driver.
type RK4 struct{}

func NewRK4() RK4 { return RK4{} }

func (RK4) Step(dyn Dynamics, s State, power float64, t float64, dt float64) State {
	k1 := dyn.Derivative(s, power, t)
	k2 := dyn.Derivative(offset(s, k1, dt/2), power, t+dt/2)
	k3 := dyn.Derivative(offset(s, k2, dt/2), power, t+dt/2)
	k4 := dyn.Derivative(offset(s, k3, dt), power, t+dt)

	return State{
		Angle:    s.Angle + dt/6*(k1.Angle+2*k2.Angle+2*k3.Angle+k4.Angle),
		Velocity: s.Velocity + dt/6*(k1.Velocity+2*k2.Velocity+2*k3.Velocity+k4.Velocity),
	}
}

func offset(s, k State, h float64) State {
	return State{Angle: s.Angle + h*k.Angle, Velocity: s.Velocity + h*k.Velocity}
}

// Euler is a first-order integrator, kept for integrator comparisons.
type Euler struct{}

func NewEuler() Euler { return Euler{} }

func (Euler) Step(dyn Dynamics, s State, power float64, t float64, dt float64) State {
	k := dyn.Derivative(s, power, t)
	return State{Angle: s.Angle + dt*k.Angle, Velocity: s.Velocity + dt*k.Velocity}
}
