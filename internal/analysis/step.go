package analysis

import (
	"math"

	"liftctl/internal/sim"
)

// StepResponse characterizes one move within a trace, from the tick the
// commanded angle changed until the next command or the end of the run.
type StepResponse struct {
	StartTime    float64
	StartAngle   float64
	Target       float64
	RiseTime     float64 // 10% to 90% of the step
	SettlingTime float64 // last entry into the tolerance band
	Overshoot    float64 // fraction of the step size, 0 if none
	FinalError   float64
}

// StepResponses splits a trace at changes of the commanded angle and
// characterizes each resulting segment. Segments smaller than the
// tolerance band are skipped.
func StepResponses(samples []sim.Sample, tolerance float64) []StepResponse {
	var out []StepResponse
	var seg []sim.Sample

	flush := func() {
		if r, ok := characterize(seg, tolerance); ok {
			out = append(out, r)
		}
		seg = nil
	}

	for i, sm := range samples {
		if i > 0 && sm.Desired != samples[i-1].Desired {
			flush()
		}
		seg = append(seg, sm)
	}
	flush()

	return out
}

func characterize(seg []sim.Sample, tolerance float64) (StepResponse, bool) {
	if len(seg) < 2 {
		return StepResponse{}, false
	}

	start := seg[0].Angle
	target := seg[0].Desired
	size := target - start
	if math.Abs(size) < tolerance {
		return StepResponse{}, false
	}

	r := StepResponse{
		StartTime:  seg[0].T,
		StartAngle: start,
		Target:     target,
		RiseTime:   math.NaN(),
		FinalError: seg[len(seg)-1].Angle - target,
	}

	t10, t90 := math.NaN(), math.NaN()
	settled := math.NaN()
	peak := 0.0

	for _, sm := range seg {
		frac := (sm.Angle - start) / size
		if math.IsNaN(t10) && frac >= 0.1 {
			t10 = sm.T
		}
		if math.IsNaN(t90) && frac >= 0.9 {
			t90 = sm.T
		}
		if frac-1 > peak {
			peak = frac - 1
		}
		if math.Abs(sm.Angle-target) <= tolerance {
			if math.IsNaN(settled) {
				settled = sm.T
			}
		} else {
			settled = math.NaN()
		}
	}

	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		r.RiseTime = t90 - t10
	}
	if !math.IsNaN(settled) {
		r.SettlingTime = settled - r.StartTime
	} else {
		r.SettlingTime = math.NaN()
	}
	r.Overshoot = peak

	return r, true
}
