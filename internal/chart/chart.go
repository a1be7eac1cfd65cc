// Package chart renders the weight series for the terminal: a braille
// line plot, a compact sparkline and the kg value readouts.
package chart

import (
	"fmt"
	"math"
	"strings"

	plot "github.com/chriskim06/drawille-go"
	"github.com/charmbracelet/lipgloss"
)

// Placeholder is shown where no reading exists yet.
const Placeholder = "--- kg"

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	colorEmpty = lipgloss.Color("236")
	colorLine  = lipgloss.Color("78")  // soft green
	colorPeak  = lipgloss.Color("208") // orange
	colorZero  = lipgloss.Color("240")
)

// FormatKg converts grams to the "x.xx kg" display form.
func FormatKg(grams float64, ok bool) string {
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("%.2f kg", grams/1000.0)
}

// ValueColor picks the readout colour: orange at the running maximum,
// grey when unloaded, green otherwise.
func ValueColor(v, peak float64, hasPeak bool) lipgloss.Color {
	switch {
	case v <= 0:
		return colorZero
	case hasPeak && v >= peak:
		return colorPeak
	default:
		return colorLine
	}
}

// RenderValue renders a kg readout coloured against the running maximum.
func RenderValue(grams float64, ok bool, peak float64, hasPeak bool) string {
	s := FormatKg(grams, ok)
	if !ok {
		return lipgloss.NewStyle().Foreground(colorZero).Render(s)
	}
	return lipgloss.NewStyle().
		Foreground(ValueColor(grams, peak, hasPeak)).
		Bold(true).
		Render(s)
}

// RenderPlot draws values as a braille line plot of width x height cells.
// The newest sample is on the right.
func RenderPlot(values []float64, width, height int, dark bool) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(values) < 2 {
		return emptyPlot(width, height)
	}

	c := plot.NewCanvas(width, height)
	c.NumDataPoints = len(values)
	c.ShowAxis = false
	if dark {
		c.LineColors = []plot.Color{plot.Red}
	} else {
		c.LineColors = []plot.Color{plot.Black}
	}
	c.Fill([][]float64{values})

	out := c.String()
	if out == "" {
		return emptyPlot(width, height)
	}
	return out
}

func emptyPlot(width, height int) string {
	dim := lipgloss.NewStyle().Foreground(colorEmpty)
	row := dim.Render(strings.Repeat("╌", width))
	rows := make([]string, height)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, "\n")
}

// RenderSparkline renders the last width values as coloured block
// characters scaled to [rangeMin, rangeMax]. Used when the terminal is too
// short for the full plot.
func RenderSparkline(values []float64, width int, rangeMin, rangeMax, peak float64, hasPeak bool) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(colorEmpty)
	if len(values) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for i := 0; i < width-len(values); i++ {
		sb.WriteString(dim.Render("╌"))
	}
	for _, v := range values {
		norm := (v - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		style := lipgloss.NewStyle().Foreground(ValueColor(v, peak, hasPeak))
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}
	return sb.String()
}

// Range returns min and max of values, or 0, 0 for none.
func Range(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
