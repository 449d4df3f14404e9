package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Progress holds counters shared between the pipeline stages and the progress
// logger. It carries no state the computation depends on.
type Progress struct {
	recordsRead *atomic.Uint64
	aggregated  *atomic.Uint64
	lastHeight  *atomic.Uint32

	mu      sync.Mutex
	handoff func() int
}

// NewProgress returns zeroed counters.
func NewProgress() *Progress {
	return &Progress{
		recordsRead: atomic.NewUint64(0),
		aggregated:  atomic.NewUint64(0),
		lastHeight:  atomic.NewUint32(0),
	}
}

func (p *Progress) recordRead() { p.recordsRead.Inc() }

func (p *Progress) recordAggregated(height uint32) {
	p.aggregated.Inc()
	p.lastHeight.Store(height)
}

func (p *Progress) setHandoff(depth func() int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handoff = depth
}

// RecordsRead returns the number of records decoded by the ingestion stage.
func (p *Progress) RecordsRead() uint64 { return p.recordsRead.Load() }

// Aggregated returns the number of events applied to the trackers.
func (p *Progress) Aggregated() uint64 { return p.aggregated.Load() }

// LastHeight returns the height of the most recently aggregated event.
func (p *Progress) LastHeight() uint32 { return p.lastHeight.Load() }

// HandoffDepth returns the number of buffered events, or 0 before Run starts.
func (p *Progress) HandoffDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handoff == nil {
		return 0
	}
	return p.handoff()
}

// StartProgressLogger logs throughput every interval until ctx is done.
func StartProgressLogger(ctx context.Context, log *zap.SugaredLogger, p *Progress, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	prev := p.RecordsRead()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			read := p.RecordsRead()
			elapsed := now.Sub(last).Seconds()
			var rate float64
			if elapsed > 0 {
				rate = float64(read-prev) / elapsed
			}
			log.Infow("progress",
				"records", read,
				"aggregated", p.Aggregated(),
				"records_per_sec", rate,
				"last_height", p.LastHeight(),
				"handoff_depth", p.HandoffDepth(),
			)
			prev, last = read, now
		}
	}
}
