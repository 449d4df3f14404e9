package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	plot "github.com/chriskim06/drawille-go"

	"github.com/ava-labs/utxo-turnover/pkg/series"
)

const (
	DefaultPlotWidth  = 120
	DefaultPlotHeight = 30
)

// PlotSink draws each series as a braille line chart and writes it to
// <dir>/turnover-<window>.txt.
type PlotSink struct {
	dir    string
	width  int
	height int
}

// NewPlotSink creates dir if needed. Non-positive dimensions fall back to the
// defaults.
func NewPlotSink(dir string, width, height int) (*PlotSink, error) {
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &PlotSink{dir: dir, width: width, height: height}, nil
}

// Name implements Sink.
func (p *PlotSink) Name() string { return "plot" }

// Path returns the artifact path for a window size.
func (p *PlotSink) Path(window uint32) string {
	return filepath.Join(p.dir, fmt.Sprintf("turnover-%d.txt", window))
}

// Render implements Sink.
func (p *PlotSink) Render(_ context.Context, s series.Series) error {
	if s.Len() == 0 {
		return nil
	}
	if err := os.WriteFile(p.Path(s.Label), []byte(p.draw(s)), 0o644); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

func (p *PlotSink) draw(s series.Series) string {
	ys := s.Ys()
	if len(ys) == 1 {
		// drawille draws segments, so a lone sample becomes a flat line.
		ys = []float64{ys[0], ys[0]}
	}

	c := plot.NewCanvas(p.width, p.height)
	c.NumDataPoints = len(ys)
	c.ShowAxis = true
	// Default keeps the artifact free of terminal escape codes.
	c.LineColors = []plot.Color{plot.Default}
	c.Fill(withRange(ys))

	var b strings.Builder
	first, last := s.Points[0].X, s.Points[s.Len()-1].X
	fmt.Fprintf(&b, "window %d passes %d points %d x %g..%g\n", s.Label, s.Passes, s.Len(), first, last)
	b.WriteString(c.String())
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

// withRange adds a one-value line, which widens the y range without being
// drawn, when every value is equal. drawille scales by max-min.
func withRange(ys []float64) [][]float64 {
	lo, hi := slices.Min(ys), slices.Max(ys)
	if lo != hi {
		return [][]float64{ys}
	}
	anchor := 0.0
	if lo == 0 {
		anchor = 1
	}
	return [][]float64{ys, {anchor}}
}
