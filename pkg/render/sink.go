// Package render hands reduced series to their output artifacts.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/utxo-turnover/pkg/metrics"
	"github.com/ava-labs/utxo-turnover/pkg/series"
)

// Sink persists one reduced series.
type Sink interface {
	Name() string
	Render(ctx context.Context, s series.Series) error
}

// Multi fans a series out to several sinks in order, stopping at the first
// failure.
type Multi struct {
	sinks   []Sink
	metrics *metrics.Metrics
}

// NewMulti creates a fan-out over sinks. m may be nil.
func NewMulti(m *metrics.Metrics, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, metrics: m}
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Render implements Sink.
func (m *Multi) Render(ctx context.Context, s series.Series) error {
	for _, sink := range m.sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := sink.Render(ctx, s)
		m.metrics.RecordSeriesRendered(sink.Name(), err, time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("%s sink: window %d: %w", sink.Name(), s.Label, err)
		}
	}
	return nil
}
