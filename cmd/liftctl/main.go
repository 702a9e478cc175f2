package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"liftctl/internal/analysis"
	"liftctl/internal/config"
	"liftctl/internal/lift"
	"liftctl/internal/metrics"
	"liftctl/internal/sim"
	"liftctl/internal/storage"
	"liftctl/internal/tui"
)

var (
	dataDir     string
	configFile  string
	dt          float64
	duration    float64
	kp          float64
	ki          float64
	kd          float64
	maxIntegral float64
	frameRate   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "liftctl",
		Short: "lift joint control lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive browser when no command given.
			return tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".liftctl", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "characterize each move in a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot angle against velocity",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, exportCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&maxIntegral, "max-integral", config.DefaultMaxIntegral, "integral error bound")
}

// resolveConfig layers the scenario sources: preset or default, then the
// config file, then explicit flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) == 1 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown scenario: %s (available: %v)", args[0], config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if cmd.Flags().Changed("max-integral") {
		cfg.Gains.MaxIntegralError = maxIntegral
	}
	return cfg, nil
}

func newHarness(cfg *config.Config) (*sim.Harness, error) {
	ctrl := lift.New(cfg.Dt)
	ctrl.SetGains(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd, cfg.Gains.MaxIntegralError)

	h := sim.NewHarness(ctrl, cfg.NewPlant(), sim.NewRK4(), cfg.Dt)
	if err := h.Calibrate(); err != nil {
		return nil, err
	}
	if err := h.ApplyScenario(cfg.ScenarioSteps()); err != nil {
		return nil, err
	}
	return h, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	h, err := newHarness(cfg)
	if err != nil {
		return err
	}
	h.AddMetric(metrics.NewSettlingTime(0.02))
	h.AddMetric(metrics.NewOvershoot())
	h.AddMetric(metrics.NewControlEffort())
	h.AddMetric(metrics.NewPeakPower())
	h.AddMetric(metrics.NewInPositionRatio())

	fmt.Printf("running %s scenario...\n", cfg.Scenario)
	start := time.Now()
	result := h.Run(cfg.Duration)
	elapsed := time.Since(start)

	gains := storage.Gains{
		Kp:               cfg.Gains.Kp,
		Ki:               cfg.Gains.Ki,
		Kd:               cfg.Gains.Kd,
		MaxIntegralError: cfg.Gains.MaxIntegralError,
	}
	runID, err := st.Save(cfg.Scenario, cfg.Dt, cfg.Duration, gains, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Samples))

	if events := h.Events(); len(events) > 0 {
		fmt.Println("\nevents:")
		for _, ev := range events {
			if ev.Detail != "" {
				fmt.Printf("  %s (%s)\n", ev.Kind, ev.Detail)
			} else {
				fmt.Printf("  %s\n", ev.Kind)
			}
		}
	}

	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tKP")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%.2f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Gains.Kp,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		pick    func(sim.Sample) float64
	}{
		{"angle (rad)", func(sm sim.Sample) float64 { return sm.Angle }},
		{"commanded angle (rad)", func(sm sim.Sample) float64 { return sm.Desired }},
		{"gripper height (mm)", func(sm sim.Sample) float64 { return lift.HeightMMForAngle(sm.Angle) }},
		{"motor power", func(sm sim.Sample) float64 { return sm.Power }},
	}

	for _, s := range series {
		data := make([]float64, len(samples))
		for i, sm := range samples {
			data[i] = s.pick(sm)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	steps := analysis.StepResponses(samples, 0.02)
	if len(steps) == 0 {
		fmt.Println("no moves found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tFROM\tTO\tRISE\tSETTLE\tOVERSHOOT\tFINAL ERR")
	for _, s := range steps {
		fmt.Fprintf(w, "%.2fs\t%.3f\t%.3f\t%s\t%s\t%.1f%%\t%.4f\n",
			s.StartTime, s.StartAngle, s.Target,
			seconds(s.RiseTime), seconds(s.SettlingTime),
			s.Overshoot*100, s.FinalError)
	}
	return w.Flush()
}

func seconds(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2fs", v)
}

func phaseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println("phase portrait (angle vs angular velocity):")
	fmt.Println()
	fmt.Print(analysis.PhasePortrait(samples, 70, 22))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, samples)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	h, err := newHarness(cfg)
	if err != nil {
		return err
	}

	r := tui.NewLiveRenderer(cfg.Scenario, frameRate)
	h.AddObserver(r)

	r.Start()
	defer r.Stop()

	// Pace the loop to wall-clock time so the motion reads naturally.
	period := time.Duration(cfg.Dt * float64(time.Second))
	end := h.Now() + cfg.Duration
	for h.Now() < end {
		h.Step()
		time.Sleep(period)
	}

	return nil
}
