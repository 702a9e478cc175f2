package storage

import (
	"bytes"
	"strings"
	"testing"

	"liftctl/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []sim.Sample{
			{T: 0.005, Angle: -0.19, Velocity: 0.5, Desired: 0.3, Power: 0.8},
			{T: 0.010, Angle: -0.18, Velocity: 0.6, Desired: 0.3, Power: 0.7, Calibrated: true},
			{T: 0.015, Angle: 0.3, Velocity: 0, Desired: 0.3, Power: 0.05, InPosition: true, Calibrated: true},
		},
		Metrics: map[string]float64{"peak_power": 0.8},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	gains := Gains{Kp: 3, Ki: 0.1, Kd: 0.075, MaxIntegralError: 5}
	runID, err := st.Save("step", 0.005, 2.0, gains, testResult())
	if err != nil {
		t.Fatal(err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Scenario != "step" || meta.Dt != 0.005 || meta.Gains.Kp != 3 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Metrics["peak_power"] != 0.8 {
		t.Errorf("metrics not preserved: %v", meta.Metrics)
	}

	samples, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[2].Desired != 0.3 || !samples[2].InPosition || !samples[2].Calibrated {
		t.Errorf("trace row mismatch: %+v", samples[2])
	}
}

func TestListFindsSavedRuns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Save("step", 0.005, 2.0, Gains{}, testResult()); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Scenario != "step" {
		t.Errorf("unexpected scenario %q", runs[0].Scenario)
	}
}

func TestListEmptyDirIsNotAnError(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportJSONIncludesTrace(t *testing.T) {
	meta := &RunMetadata{ID: "step_1", Scenario: "step"}
	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, testResult().Samples); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"samples"`) || !strings.Contains(out, `"step_1"`) {
		t.Errorf("unexpected export output: %s", out)
	}
}
