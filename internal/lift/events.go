package lift

// CalibrationReason records why a calibration was started; it is carried
// through to the completion event.
type CalibrationReason int

const (
	ReasonStartup CalibrationReason = iota
	ReasonBurnoutProtection
	ReasonMotorStuck
	ReasonEncoderInvalid
	ReasonManual
)

func (r CalibrationReason) String() string {
	switch r {
	case ReasonStartup:
		return "startup"
	case ReasonBurnoutProtection:
		return "burnout_protection"
	case ReasonMotorStuck:
		return "motor_stuck"
	case ReasonEncoderInvalid:
		return "encoder_invalid"
	case ReasonManual:
		return "manual"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	EventCalibrationStarted EventKind = iota
	EventCalibrationComplete
	EventCalibrationRestarted
	EventCalibrationAborted
	EventMotorAutoDisabled
	EventMotorAutoEnabled
	EventProfileFallback
	EventLoadCheck
)

func (k EventKind) String() string {
	switch k {
	case EventCalibrationStarted:
		return "calibration_started"
	case EventCalibrationComplete:
		return "calibration_complete"
	case EventCalibrationRestarted:
		return "calibration_restarted"
	case EventCalibrationAborted:
		return "calibration_aborted"
	case EventMotorAutoDisabled:
		return "motor_auto_disabled"
	case EventMotorAutoEnabled:
		return "motor_auto_enabled"
	case EventProfileFallback:
		return "profile_fallback"
	case EventLoadCheck:
		return "load_check"
	default:
		return "unknown"
	}
}

// Event is a diagnostic record emitted by the controller. The controller
// never acts on its own events; they exist for logging and telemetry.
//
// Magnitude and Duration are kind-specific: for calibration completion they
// are the correction in millidegrees and the seconds spent with an invalid
// encoder; for a load check, the observed drift in radians and the probe
// time in seconds.
type Event struct {
	Kind      EventKind
	Reason    CalibrationReason
	Magnitude float64
	Duration  float64
	Detail    string
}

// EventSink receives diagnostic events synchronously on the tick that
// produced them.
type EventSink interface {
	Emit(Event)
}

// EventFunc adapts a plain function to the EventSink interface.
type EventFunc func(Event)

func (f EventFunc) Emit(ev Event) { f(ev) }
