package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"liftctl/internal/config"
	"liftctl/internal/lift"
	"liftctl/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var scenarioInfo = map[string]string{
	"step":           "step up, step back down",
	"pick_and_place": "carry a load up, check it, set it down",
	"timed_lift":     "fixed-duration moves",
	"charger":        "auto-disable on the charge contacts",
	"brace":          "brace for impact and recover",
	"held":           "burnout protection under an external grip",
}

type uiState int

const (
	stateMenu uiState = iota
	stateSim
)

type model struct {
	state    uiState
	cursor   int
	presets  []string
	selected string

	cfg     *config.Config
	harness *sim.Harness
	start   float64
	last    sim.Sample
	history []float64

	running bool
	paused  bool
	speed   float64

	width  int
	height int
}

func NewInteractiveApp() *model {
	presets := config.ListPresets()
	sort.Strings(presets)
	return &model{
		state:   stateMenu,
		presets: presets,
		speed:   1.0,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.harness != nil {
			steps := int(m.speed * 0.016 / m.cfg.Dt)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.begin()
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape":
		m.running = false
		m.state = stateMenu
		m.harness = nil
		m.history = nil
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.begin()
		return m, tea.Batch(tea.ClearScreen, tick())
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) begin() {
	m.cfg = config.GetPreset(m.selected)
	if m.cfg == nil {
		return
	}

	ctrl := lift.New(m.cfg.Dt)
	ctrl.SetGains(m.cfg.Gains.Kp, m.cfg.Gains.Ki, m.cfg.Gains.Kd, m.cfg.Gains.MaxIntegralError)
	m.harness = sim.NewHarness(ctrl, m.cfg.NewPlant(), sim.NewRK4(), m.cfg.Dt)

	// The calibration run happens up front so the scenario clock starts
	// from a known reference.
	_ = m.harness.Calibrate()
	_ = m.harness.ApplyScenario(m.cfg.ScenarioSteps())

	m.start = m.harness.Now()
	m.history = make([]float64, 0, 120)
	m.running = true
	m.paused = false
	m.speed = 1.0
}

func (m *model) step() {
	if m.harness.Now()-m.start >= m.cfg.Duration {
		m.paused = true
		return
	}
	m.last = m.harness.Step()
	m.history = append(m.history, m.last.Angle)
	if len(m.history) > 120 {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("l i f t c t l") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		desc := scenarioInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter run   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 12
	if cw < 50 {
		cw = 50
	}
	if ch < 12 {
		ch = 12
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	drawLift(canvas, cw, ch, m.last)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText))

	elapsed := 0.0
	if m.harness != nil {
		elapsed = m.harness.Now() - m.start
	}
	progress := elapsed / m.cfg.Duration
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", elapsed, m.cfg.Duration)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("%gx", m.speed))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	b.WriteString("\n   " + m.powerBar(20))

	b.WriteString(fmt.Sprintf("\n   %s%s  %s%s  %s%s",
		dim.Render("height="), white.Render(fmt.Sprintf("%.1fmm", lift.HeightMMForAngle(m.last.Angle))),
		dim.Render("angle="), white.Render(fmt.Sprintf("%.3f", m.last.Angle)),
		dim.Render("power="), white.Render(fmt.Sprintf("%+.2f", m.last.Power))))

	switch {
	case !m.last.Calibrated:
		b.WriteString("  " + yellow.Render("calibrating"))
	case m.last.InPosition:
		b.WriteString("  " + green.Render("in position"))
	default:
		b.WriteString("  " + magenta.Render("tracking"))
	}
	b.WriteString("\n")

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("θ"), cyan.Render(sparkline(m.history, 24))))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  q back") + "\n")

	return b.String()
}

// powerBar shows signed motor power as a bar growing left or right from
// a center mark.
func (m model) powerBar(half int) string {
	p := m.last.Power
	n := int(math.Abs(p) * float64(half))
	if n > half {
		n = half
	}
	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	style := green
	if p >= 0 {
		right = style.Render(strings.Repeat("█", n)) + strings.Repeat(" ", half-n)
	} else {
		style = yellow
		left = strings.Repeat(" ", half-n) + style.Render(strings.Repeat("█", n))
	}
	return dim.Render("power ") + left + dimmer.Render("┃") + right
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
