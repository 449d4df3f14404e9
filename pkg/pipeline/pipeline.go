package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/utxo-turnover/pkg/metrics"
	"github.com/ava-labs/utxo-turnover/pkg/render"
	"github.com/ava-labs/utxo-turnover/pkg/series"
	"github.com/ava-labs/utxo-turnover/pkg/turnover"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
	"github.com/ava-labs/utxo-turnover/pkg/utxo"
)

// DefaultHandoffCapacity is the default number of decoded events buffered
// between ingestion and aggregation.
const DefaultHandoffCapacity = 1000

var ErrNoWindows = errors.New("at least one window size is required")

// Source yields raw records in stream order. Scan returns nil at end of stream.
type Source interface {
	Scan(ctx context.Context, fn func(record string) error) error
}

// Config configures a Pipeline.
type Config struct {
	WindowSizes     []uint32
	HandoffCapacity int
	Rotation        turnover.RotationMode
	TrackUnspent    bool
	// Out receives the report. Defaults to os.Stdout.
	Out io.Writer
}

// Pipeline runs the two-stage turnover computation.
type Pipeline struct {
	log      *zap.SugaredLogger
	cfg      Config
	sink     render.Sink
	metrics  *metrics.Metrics
	progress *Progress
}

// New validates cfg and creates a pipeline. sink and m may be nil.
func New(log *zap.SugaredLogger, cfg Config, sink render.Sink, m *metrics.Metrics) (*Pipeline, error) {
	if len(cfg.WindowSizes) == 0 {
		return nil, ErrNoWindows
	}
	for _, s := range cfg.WindowSizes {
		if s == 0 {
			return nil, fmt.Errorf("window size: %w", turnover.ErrInvalidSize)
		}
	}
	cfg.WindowSizes = utils.NormalizeWindowSizes(cfg.WindowSizes)
	if cfg.HandoffCapacity <= 0 {
		cfg.HandoffCapacity = DefaultHandoffCapacity
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		log:      log,
		cfg:      cfg,
		sink:     sink,
		metrics:  m,
		progress: NewProgress(),
	}, nil
}

// Progress returns the counters updated while Run is in progress.
func (p *Pipeline) Progress() *Progress { return p.progress }

// WindowSizes returns the ascending window sizes the pipeline tracks.
func (p *Pipeline) WindowSizes() []uint32 { return p.cfg.WindowSizes }

// Run consumes src to exhaustion, writes the report and renders every
// non-empty series. The returned report is nil on error.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Report, error) {
	agg, err := p.newAggregator()
	if err != nil {
		return nil, err
	}

	events := make(chan utxo.Event, p.cfg.HandoffCapacity)
	p.progress.setHandoff(func() int { return len(events) })

	var report *Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.ingest(gctx, src, events)
	})
	g.Go(func() error {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					report = agg.report()
					return p.finish(gctx, report)
				}
				agg.observe(ev)
				p.metrics.SetHandoffDepth(len(events))
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// ingest is the only sender on events and closes it on success.
func (p *Pipeline) ingest(ctx context.Context, src Source, events chan<- utxo.Event) error {
	var n uint64
	err := src.Scan(ctx, func(record string) error {
		n++
		ev, err := utxo.Decode(record)
		if err != nil {
			p.metrics.IncRecordsRejected()
			return fmt.Errorf("record %d: %w", n, err)
		}
		p.metrics.RecordEvent(ev.Spend)
		p.progress.recordRead()
		select {
		case events <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return err
	}
	close(events)
	p.log.Debugw("input exhausted", "records", n)
	return nil
}

func (p *Pipeline) finish(ctx context.Context, report *Report) error {
	if _, err := report.WriteTo(p.cfg.Out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	for _, w := range report.Windows {
		s, ok := series.Reduce(w.History, w.Size)
		if !ok {
			p.log.Debugw("empty history, skipping render", "window", w.Size)
			continue
		}
		if p.sink == nil {
			continue
		}
		if err := p.sink.Render(ctx, s); err != nil {
			return fmt.Errorf("failed to render window %d: %w", w.Size, err)
		}
		p.log.Infow("rendered series", "window", w.Size, "passes", s.Passes, "points", s.Len())
	}
	return nil
}

type window struct {
	tracker *turnover.Tracker
	metrics *metrics.WindowMetrics
}

// aggregator is owned by the aggregation stage.
type aggregator struct {
	windows      []window
	ledger       *turnover.Ledger
	totalOutputs uint64
	progress     *Progress
	metrics      *metrics.Metrics
}

func (p *Pipeline) newAggregator() (*aggregator, error) {
	agg := &aggregator{progress: p.progress, metrics: p.metrics}
	for _, size := range p.cfg.WindowSizes {
		t, err := turnover.NewTracker(size, turnover.WithRotationMode(p.cfg.Rotation))
		if err != nil {
			return nil, err
		}
		agg.windows = append(agg.windows, window{tracker: t, metrics: p.metrics.Window(size)})
	}
	if p.cfg.TrackUnspent {
		agg.ledger = turnover.NewLedger(0)
	}
	return agg, nil
}

func (a *aggregator) observe(ev utxo.Event) {
	for _, w := range a.windows {
		rotated, matched := w.tracker.Observe(ev)
		w.metrics.Observe(rotated, matched)
		w.metrics.SetLive(w.tracker.Live())
	}
	if !ev.Spend {
		a.totalOutputs++
	}
	if a.ledger != nil {
		a.ledger.Observe(ev)
	}
	a.progress.recordAggregated(ev.Height)
	a.metrics.SetLastHeight(ev.Height)
}

func (a *aggregator) report() *Report {
	r := &Report{TotalOutputs: a.totalOutputs}
	for _, w := range a.windows {
		r.Windows = append(r.Windows, WindowReport{
			Size:      w.tracker.Size(),
			Spent:     w.tracker.Spent(),
			Rotations: w.tracker.Rotations(),
			History:   w.tracker.History(),
		})
	}
	if a.ledger != nil {
		r.Ledger = &LedgerReport{
			Unspent: a.ledger.Unspent(),
			Inputs:  a.ledger.Inputs(),
			Outputs: a.ledger.Outputs(),
		}
	}
	return r
}
