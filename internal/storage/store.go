package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"liftctl/internal/sim"
)

// Store persists scenario runs under a base directory, one subdirectory
// per run with metadata.json and trace.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Gains struct {
	Kp               float64 `json:"kp"`
	Ki               float64 `json:"ki"`
	Kd               float64 `json:"kd"`
	MaxIntegralError float64 `json:"max_integral_error"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Gains     Gains              `json:"gains"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scenario string, dt, duration float64, gains Gains, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  scenario,
		Timestamp: time.Now(),
		Dt:        dt,
		Duration:  duration,
		Gains:     gains,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time", "angle", "velocity", "desired", "power", "in_position", "calibrated"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, sm := range result.Samples {
		row := []string{
			strconv.FormatFloat(sm.T, 'f', 6, 64),
			strconv.FormatFloat(sm.Angle, 'f', 6, 64),
			strconv.FormatFloat(sm.Velocity, 'f', 6, 64),
			strconv.FormatFloat(sm.Desired, 'f', 6, 64),
			strconv.FormatFloat(sm.Power, 'f', 6, 64),
			boolField(sm.InPosition),
			boolField(sm.Calibrated),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]sim.Sample, 0, len(records))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 7 {
			continue
		}

		fields := make([]float64, 5)
		ok := true
		for j := range fields {
			fields[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		samples = append(samples, sim.Sample{
			T:          fields[0],
			Angle:      fields[1],
			Velocity:   fields[2],
			Desired:    fields[3],
			Power:      fields[4],
			InPosition: record[5] == "1",
			Calibrated: record[6] == "1",
		})
	}

	return samples, nil
}

// ExportJSON writes a run with its full trace as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	doc := struct {
		RunMetadata
		Samples []sim.Sample `json:"samples"`
	}{*meta, samples}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
