package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/luki/weighplot/internal/chart"
	"github.com/luki/weighplot/internal/export"
	"github.com/luki/weighplot/internal/series"
)

const defaultShowWidth = 60

// runShow reads a CSV export back and prints its statistics and a
// sparkline of the recorded weights.
func runShow(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("weighplot show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	width := fs.Int("width", defaultShowWidth, "sparkline width in cells")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: weighplot show [-width N] <export.csv>")
		return exitUsage
	}

	path := fs.Arg(0)
	rows, err := export.LoadCSV(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFail
	}
	if err := printShow(w, path, rows, *width); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFail
	}
	return exitOK
}

func printShow(w io.Writer, name string, rows []export.Row, width int) error {
	if len(rows) == 0 {
		return fmt.Errorf("%s: %w", name, export.ErrEmpty)
	}

	values := make([]float64, len(rows))
	peak := rows[0].Grams
	for i, r := range rows {
		values[i] = r.Grams
		if r.Grams > peak {
			peak = r.Grams
		}
	}
	sum, _ := series.Summarize(values)
	lo, hi := chart.Range(values)

	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, name)
	fmt.Fprintf(w, "samples %d  index %d..%d\n", sum.Count, rows[0].Index, rows[len(rows)-1].Index)
	fmt.Fprintf(w, "min %s  avg %s  max %s  sd %.1f g\n",
		chart.FormatKg(sum.Min, true), chart.FormatKg(sum.Mean, true),
		chart.FormatKg(peak, true), sum.StdDev)
	fmt.Fprintln(w, chart.RenderSparkline(values, width, lo, hi, peak, true))
	return nil
}
