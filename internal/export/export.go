// Package export writes the current history window to disk on request:
// a CSV of index/grams rows and a PNG line chart. Files are named
// weight-YYYYMMDD-HHMMSS.{csv,png} in the chosen directory.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/luki/weighplot/internal/series"
)

const fileLayout = "20060102-150405"

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no samples to export")

// Row is a single line of a CSV export.
type Row struct {
	Index int
	Grams float64
}

// FileName returns the base name for an export taken at t.
func FileName(t time.Time, ext string) string {
	return "weight-" + t.Format(fileLayout) + "." + ext
}

// WriteCSV writes snap as "index,grams" rows into dir and returns the path.
func WriteCSV(dir string, snap series.Snapshot, t time.Time) (string, error) {
	if len(snap.Values) == 0 {
		return "", ErrEmpty
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create export dir: %w", err)
	}

	path := filepath.Join(dir, FileName(t, "csv"))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"index", "grams"})
	for i, v := range snap.Values {
		w.Write([]string{
			strconv.Itoa(snap.Indices[i]),
			strconv.FormatFloat(v, 'f', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// LoadCSV reads a file written by WriteCSV. Rows that do not parse are
// skipped.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "index" {
			continue
		}
		if len(rec) < 2 {
			continue
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		g, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		rows = append(rows, Row{Index: idx, Grams: g})
	}
	return rows, nil
}

// WritePNG renders snap as a line chart of grams against sample index.
func WritePNG(dir string, snap series.Snapshot, t time.Time) (string, error) {
	xs := make([]float64, len(snap.Indices))
	for i, idx := range snap.Indices {
		xs[i] = float64(idx)
	}
	ys := snap.Values

	if len(ys) == 0 {
		return "", ErrEmpty
	}
	if len(ys) == 1 {
		// go-chart needs two points to compute a range.
		xs = append(xs, xs[0]+1)
		ys = []float64{ys[0], ys[0]}
	}

	ch := chart.Chart{
		Title:  "Weight (g) vs sample",
		Width:  1024,
		Height: 480,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: "Sample"},
		YAxis: yAxis(ys),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "weight",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("1f77b4"),
					StrokeWidth: 1.5,
				},
			},
		},
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(t, "png"))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := ch.Render(chart.PNG, f); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return path, f.Close()
}

func yAxis(ys []float64) chart.YAxis {
	ax := chart.YAxis{Name: "Weight, g"}
	lo, hi := ys[0], ys[0]
	for _, v := range ys {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		// A flat line has a zero range, which go-chart rejects.
		ax.Range = &chart.ContinuousRange{Min: lo - 10, Max: hi + 10}
	}
	return ax
}
