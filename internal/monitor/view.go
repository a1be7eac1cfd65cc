package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/weighplot/internal/chart"
	"github.com/luki/weighplot/internal/series"
)

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorValue    = lipgloss.Color("250")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorCrit     = lipgloss.Color("196")
	colorFooterBg = lipgloss.Color("235")
)

// Rows used by everything except the plot body.
const chromeRows = 14

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	snap := m.snapshot()

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))

	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err)))
	} else if m.notice != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorOk).
			Width(contentWidth).
			Padding(0, 1).
			Render(" "+m.notice))
	}

	sections = append(sections, m.renderConnection(contentWidth))
	sections = append(sections, m.renderReadouts(snap, contentWidth))
	sections = append(sections, m.renderPlot(snap, contentWidth))
	sections = append(sections, m.renderFooter(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("UART WEIGHT PLOTTER")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	var statusParts []string

	if m.tr != nil {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorOk).
			Render(fmt.Sprintf("Connected: %s @ %d", m.port, m.baud)))
	} else {
		statusParts = append(statusParts, dimS.Render("Disconnected"))
	}

	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("up %s", fmtDuration(m.deps.Now().Sub(m.startTime)))))

	if !m.lastData.IsZero() {
		statusParts = append(statusParts, dimS.Render(m.lastData.Format("15:04:05")))
	}

	store := m.pipe.Store
	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("%d/%d pts", store.Len(), store.Capacity())))

	if m.malformed > 0 {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorWarn).
			Render(fmt.Sprintf("%d bad", m.malformed)))
	}

	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Render("PAUSED"))
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderConnection(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel)

	port := "none"
	if m.portIdx >= 0 && m.portIdx < len(m.ports) {
		port = m.ports[m.portIdx].Label()
		if len(m.ports) > 1 {
			port += dimS.Render(fmt.Sprintf(" [%d/%d]", m.portIdx+1, len(m.ports)))
		}
	}

	var baud string
	if m.editingBaud {
		baud = m.baudInput.View() + dimS.Render(" enter:apply esc:cancel")
	} else {
		baud = labelS.Render(fmt.Sprintf("%d", m.baud))
	}

	line := dimS.Render("Port: ") + labelS.Render(port) +
		dimS.Render("   Baud: ") + baud

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(line)
}

func (m Model) renderReadouts(snap series.Snapshot, width int) string {
	half := (width-1)/2 - 2
	if half < 18 {
		half = 18
	}

	panel := func(title, value string) string {
		head := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(half - 4).
			Align(lipgloss.Center).
			Render(title)
		body := lipgloss.NewStyle().
			Width(half - 4).
			Align(lipgloss.Center).
			Render(value)
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(half).
			Render(lipgloss.JoinVertical(lipgloss.Center, head, body))
	}

	last := panel("LAST", chart.RenderValue(snap.Last, snap.HasLast, snap.Max, snap.HasMax))
	peak := panel("MAX", chart.RenderValue(snap.Max, snap.HasMax, snap.Max, snap.HasMax))
	return lipgloss.JoinHorizontal(lipgloss.Top, last, " ", peak)
}

func (m Model) renderPlot(snap series.Snapshot, width int) string {
	innerWidth := width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	plotHeight := m.height - chromeRows
	if m.help.ShowAll {
		plotHeight -= 2
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(colorValue)

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Foreground(colorLabel).Bold(true).Render("Weight (g) vs sample"))

	if plotHeight >= 3 {
		rows = append(rows, chart.RenderPlot(snap.Values, innerWidth, plotHeight, m.dark))
	} else {
		lo, hi := chart.Range(snap.Values)
		rows = append(rows, chart.RenderSparkline(snap.Values, innerWidth, lo, hi, snap.Max, snap.HasMax))
	}

	axis := dimS.Render("no samples")
	if n := len(snap.Indices); n > 0 {
		first := fmt.Sprintf("%d", snap.Indices[0])
		last := fmt.Sprintf("%d", snap.Indices[n-1])
		gap := innerWidth - len(first) - len(last)
		if gap < 1 {
			gap = 1
		}
		axis = dimS.Render(first + strings.Repeat(" ", gap) + last)
	}
	rows = append(rows, axis)

	summary := dimS.Render("window: empty")
	if snap.HasSummary {
		sum := snap.Summary
		summary = dimS.Render("n ") + valS.Render(fmt.Sprintf("%d", sum.Count)) +
			dimS.Render("  lo ") + valS.Render(chart.FormatKg(sum.Min, true)) +
			dimS.Render("  avg ") + valS.Render(chart.FormatKg(sum.Mean, true)) +
			dimS.Render("  sd ") + valS.Render(fmt.Sprintf("%.1f g", sum.StdDev))
	}
	rows = append(rows, summary)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderFooter(width int) string {
	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(m.help.View(keys))
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mm := d / time.Minute
	d -= mm * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, mm, s)
	}
	return fmt.Sprintf("%dm%02ds", mm, s)
}
