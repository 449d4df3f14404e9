package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Report is the end-of-stream summary.
type Report struct {
	TotalOutputs uint64
	Windows      []WindowReport
	Ledger       *LedgerReport // nil unless unspent tracking is enabled
}

// WindowReport summarises one tracker.
type WindowReport struct {
	Size      uint32
	Spent     uint32
	Rotations int
	History   []float64
}

// LedgerReport summarises the whole-stream unspent set.
type LedgerReport struct {
	Unspent int
	Inputs  uint64
	Outputs uint64
}

// Ratio is the global spend ratio: matched spends over all creations in the
// stream. It is NaN when the stream created nothing.
func (w WindowReport) Ratio(totalOutputs uint64) float64 {
	return float64(w.Spent) / float64(totalOutputs)
}

// FormatRatio renders r in its shortest exact form.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// String renders the report as it is written to the output.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total outputs %d\n", r.TotalOutputs)
	for _, w := range r.Windows {
		fmt.Fprintf(&b, "size: %d spent: %d ratio:%s\n", w.Size, w.Spent, FormatRatio(w.Ratio(r.TotalOutputs)))
	}
	if r.Ledger != nil {
		fmt.Fprintf(&b, "set size: %d\n", r.Ledger.Unspent)
		fmt.Fprintf(&b, "n_input: %d\n", r.Ledger.Inputs)
		fmt.Fprintf(&b, "n_output: %d\n", r.Ledger.Outputs)
	}
	return b.String()
}

// WriteTo implements io.WriterTo.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}
