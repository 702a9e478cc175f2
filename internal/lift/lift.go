// Package lift implements the closed-loop position controller for a
// single-joint forklift actuator. One Controller owns all state for one
// physical joint; an external real-time scheduler calls Tick at a fixed
// period and commands may be issued between ticks.
//
// The encoder is incremental, so the joint has no absolute reference until
// a calibration run drives it onto the low mechanical hard stop.
package lift

import "math"

// Lift linkage geometry. The gripper height above the ground is
// shoulderHeightMM + armLengthMM*sin(angle).
const (
	armLengthMM      = 66.0
	shoulderHeightMM = 45.0

	minHeightMM = 32.0
	maxHeightMM = 92.0
)

// Mechanical travel limits in radians, derived from the height limits.
var (
	MinAngle = AngleForHeightMM(minHeightMM)
	MaxAngle = AngleForHeightMM(maxHeightMM)
)

// DefaultTickPeriod is the control period of the robot's real-time
// scheduler, in seconds.
const DefaultTickPeriod = 0.005

// Commanded speed and acceleration are clipped to these bounds.
const (
	maxSpeedLimit = 10.0
	maxAccelLimit = 2000.0
)

// Defaults used when a motion command does not constrain speed or accel.
const (
	defaultMaxSpeed = math.Pi
	defaultAccel    = 1000.0
)

// Default accel/decel fractions for duration-based moves.
const defaultAccelFrac = 0.25

// AngleForHeightMM converts a gripper height to the joint angle that
// produces it, saturating at the geometric extremes.
func AngleForHeightMM(heightMM float64) float64 {
	s := (heightMM - shoulderHeightMM) / armLengthMM
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return math.Asin(s)
}

// HeightMMForAngle converts a joint angle to gripper height.
func HeightMMForAngle(angle float64) float64 {
	return shoulderHeightMM + armLengthMM*math.Sin(angle)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
