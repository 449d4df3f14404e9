package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxo-turnover/pkg/series"
)

func TestNewPlotSink_Defaults(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "plots")
	p, err := NewPlotSink(dir, 0, -1)
	require.NoError(t, err)
	require.Equal(t, DefaultPlotWidth, p.width)
	require.Equal(t, DefaultPlotHeight, p.height)
	require.DirExists(t, dir)
	require.Equal(t, "plot", p.Name())
	require.Equal(t, filepath.Join(dir, "turnover-144.txt"), p.Path(144))
}

func TestPlotSink_Render(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p, err := NewPlotSink(dir, 40, 10)
	require.NoError(t, err)

	history := make([]float64, 1001)
	for i := range history {
		history[i] = float64(i%10) / 10
	}
	s, ok := series.Reduce(history, 6)
	require.True(t, ok)

	require.NoError(t, p.Render(t.Context(), s))

	data, err := os.ReadFile(filepath.Join(dir, "turnover-6.txt"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Equal(t, "window 6 passes 2 points 251 x 6..3006", lines[0])
	require.Greater(t, len(lines), 2)
	require.True(t, hasBraille(string(data)))
	require.NotContains(t, string(data), "\x1b[")
}

func TestPlotSink_RenderDegenerateSeries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		history []float64
		header  string
	}{
		{name: "single sample", history: []float64{0.5}, header: "window 10 passes 0 points 1 x 10..10"},
		{name: "single zero sample", history: []float64{0}, header: "window 10 passes 0 points 1 x 10..10"},
		{name: "flat", history: []float64{0, 0, 0}, header: "window 10 passes 0 points 3 x 10..10"},
		{name: "flat nonzero", history: []float64{0.25, 0.25}, header: "window 10 passes 0 points 2 x 10..10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewPlotSink(t.TempDir(), 40, 10)
			require.NoError(t, err)
			s, ok := series.Reduce(tt.history, 10)
			require.True(t, ok)

			require.NoError(t, p.Render(t.Context(), s))

			data, err := os.ReadFile(p.Path(10))
			require.NoError(t, err)
			out := string(data)
			require.True(t, strings.HasPrefix(out, tt.header+"\n"))
			require.True(t, hasBraille(out), "no braille cells in:\n%s", out)
			require.NotContains(t, out, "\x1b[")
		})
	}
}

func TestWithRange(t *testing.T) {
	t.Parallel()
	require.Equal(t, [][]float64{{0.1, 0.2}}, withRange([]float64{0.1, 0.2}))
	require.Equal(t, [][]float64{{0.5, 0.5}, {0}}, withRange([]float64{0.5, 0.5}))
	require.Equal(t, [][]float64{{0, 0}, {1}}, withRange([]float64{0, 0}))
}

// hasBraille reports whether s holds a non-blank braille pattern cell.
func hasBraille(s string) bool {
	for _, r := range s {
		if r > 0x2800 && r <= 0x28FF {
			return true
		}
	}
	return false
}

func TestPlotSink_RenderEmptySeries(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p, err := NewPlotSink(dir, 40, 10)
	require.NoError(t, err)

	require.NoError(t, p.Render(t.Context(), series.Series{Label: 1}))
	_, err = os.Stat(p.Path(1))
	require.True(t, os.IsNotExist(err))
}
