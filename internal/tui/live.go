package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"liftctl/internal/lift"
	"liftctl/internal/sim"
)

const (
	liveWidth   = 70
	liveHeight  = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws the lift arm to the terminal as a run progresses.
// It implements sim.Observer and throttles itself to the frame rate.
type LiveRenderer struct {
	scenario  string
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
}

func NewLiveRenderer(scenario string, frameRate int) *LiveRenderer {
	canvas := make([][]rune, liveHeight)
	for i := range canvas {
		canvas[i] = make([]rune, liveWidth)
	}
	return &LiveRenderer{
		scenario:  scenario,
		frameRate: frameRate,
		canvas:    canvas,
	}
}

func (r *LiveRenderer) OnStep(sm sim.Sample) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
	drawLift(r.canvas, liveWidth, liveHeight, sm)
	r.render(sm)
}

func (r *LiveRenderer) render(sm sim.Sample) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs\n", r.scenario, sm.T))
	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	status := "tracking"
	switch {
	case !sm.Calibrated:
		status = "calibrating"
	case sm.InPosition:
		status = "in position"
	}
	b.WriteString(fmt.Sprintf("  height=%5.1fmm  angle=%6.3f  power=%+.2f  %s\n",
		lift.HeightMMForAngle(sm.Angle), sm.Angle, sm.Power, status))

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

// drawLift renders a side view: the mast on the left, the arm pivoting
// at the shoulder, tick marks at the travel limits and a ghost marker at
// the commanded angle.
func drawLift(canvas [][]rune, w, h int, sm sim.Sample) {
	px := w / 4
	py := h / 2
	armRows := float64(h) * 0.45
	armCols := armRows * 1.9

	for y := 0; y < h-1; y++ {
		set(canvas, px-1, y, '║', w, h)
	}
	for x := 1; x < w-1; x++ {
		set(canvas, x, h-1, '═', w, h)
	}

	tip := func(angle float64) (int, int) {
		return px + int(armCols*math.Cos(angle)), py - int(armRows*math.Sin(angle))
	}

	lx, ly := tip(lift.MinAngle)
	hx, hy := tip(lift.MaxAngle)
	set(canvas, lx+1, ly, '·', w, h)
	set(canvas, hx+1, hy, '·', w, h)

	dx, dy := tip(sm.Desired)
	set(canvas, dx, dy, '+', w, h)

	ax, ay := tip(sm.Angle)
	drawLine(canvas, w, h, px, py, ax, ay, '─')
	set(canvas, px, py, '▣', w, h)
	set(canvas, ax, ay, '⬤', w, h)
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
