package sim

import (
	"fmt"

	"liftctl/internal/lift"
)

// ScenarioStep is one scheduled action in a scripted run. At is measured
// from the moment the scenario is applied to a harness.
type ScenarioStep struct {
	At     float64
	Action string

	// Target is an angle in radians, or a height in millimeters for the
	// height actions.
	Target   float64
	Speed    float64
	Accel    float64
	Duration float64

	// On carries the boolean for flag actions and the auto-re-enable
	// choice for disable.
	On bool
}

// Actions understood by ApplyScenario.
const (
	ActionMove         = "move"
	ActionMoveHeight   = "move_height"
	ActionTimedMove    = "timed_move"
	ActionVelocity     = "velocity"
	ActionStop         = "stop"
	ActionCalibrate    = "calibrate"
	ActionBrace        = "brace"
	ActionUnbrace      = "unbrace"
	ActionLoadCheck    = "load_check"
	ActionEnable       = "enable"
	ActionDisable      = "disable"
	ActionHold         = "hold"
	ActionHazard       = "hazard"
	ActionCarry        = "carry"
	ActionCharger      = "charger"
	ActionEncoderFault = "encoder_fault"
)

// ApplyScenario schedules every step on the harness. Unknown actions are
// reported up front rather than silently dropped mid-run.
func (h *Harness) ApplyScenario(steps []ScenarioStep) error {
	for _, st := range steps {
		st := st
		var fn func(*Harness)
		switch st.Action {
		case ActionMove:
			fn = func(h *Harness) { h.Ctrl.SetDesiredAngle(st.Target, st.Speed, st.Accel, true) }
		case ActionMoveHeight:
			fn = func(h *Harness) { h.Ctrl.SetDesiredHeight(st.Target, st.Speed, st.Accel, true) }
		case ActionTimedMove:
			fn = func(h *Harness) { h.Ctrl.SetDesiredAngleByDuration(st.Target, 0.25, 0.25, st.Duration) }
		case ActionVelocity:
			fn = func(h *Harness) { h.Ctrl.SetAngularVelocity(st.Speed, st.Accel) }
		case ActionStop:
			fn = func(h *Harness) { h.Ctrl.Stop() }
		case ActionCalibrate:
			fn = func(h *Harness) { h.Ctrl.StartCalibration(false, lift.ReasonManual) }
		case ActionBrace:
			fn = func(h *Harness) { h.Ctrl.Brace() }
		case ActionUnbrace:
			fn = func(h *Harness) { h.Ctrl.Unbrace() }
		case ActionLoadCheck:
			fn = func(h *Harness) { h.Ctrl.CheckForLoad(nil) }
		case ActionEnable:
			fn = func(h *Harness) { h.Ctrl.Enable() }
		case ActionDisable:
			fn = func(h *Harness) { h.Ctrl.Disable(st.On) }
		case ActionHold:
			fn = func(h *Harness) { h.Flags.Held = st.On }
		case ActionHazard:
			fn = func(h *Harness) { h.Flags.Hazard = st.On }
		case ActionCarry:
			fn = func(h *Harness) { h.Flags.Carrying = st.On }
		case ActionCharger:
			fn = func(h *Harness) { h.Flags.OnCharger = st.On }
		case ActionEncoderFault:
			fn = func(h *Harness) { h.Flags.EncoderInvalid = st.On }
		default:
			return fmt.Errorf("unknown scenario action: %q", st.Action)
		}
		h.Schedule(h.t+st.At, fn)
	}
	return nil
}
