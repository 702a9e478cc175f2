package analysis

import (
	"strings"

	"liftctl/internal/sim"
)

// PhasePortrait plots angle against velocity from a trace as ASCII art.
// Closed trajectories show up as loops, a well damped move as a spiral
// into the target point.
func PhasePortrait(samples []sim.Sample, width, height int) string {
	if len(samples) == 0 {
		return ""
	}

	minX, maxX := samples[0].Angle, samples[0].Angle
	minY, maxY := samples[0].Velocity, samples[0].Velocity
	for _, sm := range samples {
		if sm.Angle < minX {
			minX = sm.Angle
		}
		if sm.Angle > maxX {
			maxX = sm.Angle
		}
		if sm.Velocity < minY {
			minY = sm.Velocity
		}
		if sm.Velocity > maxY {
			maxY = sm.Velocity
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, sm := range samples {
		col := int((sm.Angle - minX) / rangeX * float64(width-1))
		row := height - 1 - int((sm.Velocity-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Zero-velocity axis, where the trajectory comes to rest.
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
