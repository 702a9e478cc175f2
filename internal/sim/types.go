package sim

// State is the mechanical state of the joint.
type State struct {
	Angle    float64
	Velocity float64
}

// Dynamics produces the state derivative for a motor power command in
// [-1, 1].
type Dynamics interface {
	Derivative(s State, power float64, t float64) State
}

// Integrator advances the plant state by one timestep.
type Integrator interface {
	Step(dyn Dynamics, s State, power float64, t float64, dt float64) State
}

// Metric accumulates a scalar summary over a run.
type Metric interface {
	Name() string
	Observe(sm Sample)
	Value() float64
	Reset()
}

// Observer receives every sample as the run progresses.
type Observer interface {
	OnStep(sm Sample)
}

// Sample is one tick of the closed loop.
type Sample struct {
	T          float64
	Angle      float64
	Velocity   float64
	Desired    float64
	Power      float64
	InPosition bool
	Calibrated bool
}

// Result is a completed run: the full trace plus metric summaries.
type Result struct {
	Samples []Sample
	Metrics map[string]float64
}
