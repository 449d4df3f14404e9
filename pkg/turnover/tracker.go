package turnover

import (
	"errors"
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/ava-labs/utxo-turnover/pkg/utxo"
)

// ErrInvalidSize is returned when a tracker is created with a zero window size.
var ErrInvalidSize = errors.New("window size must be greater than zero")

// RotationMode selects when a tracker checks for a window boundary.
type RotationMode int

const (
	// RotateEveryEvent checks the boundary on every event. Several events at a
	// rotating height can each rotate if earlier events at that height
	// repopulated the live set.
	RotateEveryEvent RotationMode = iota
	// RotateOncePerHeight checks the boundary only on the first event of each
	// height value.
	RotateOncePerHeight
)

// String returns the flag spelling of the mode.
func (m RotationMode) String() string {
	switch m {
	case RotateEveryEvent:
		return "every-event"
	case RotateOncePerHeight:
		return "once-per-height"
	default:
		return fmt.Sprintf("RotationMode(%d)", int(m))
	}
}

// ParseRotationMode is the inverse of RotationMode.String.
func ParseRotationMode(s string) (RotationMode, error) {
	switch s {
	case "", "every-event":
		return RotateEveryEvent, nil
	case "once-per-height":
		return RotateOncePerHeight, nil
	default:
		return 0, fmt.Errorf("unknown rotation mode %q", s)
	}
}

// defaultLiveCapacity is the initial swiss table size for a live set.
const defaultLiveCapacity = 1 << 10

// Tracker owns one window resolution's live set and spent accounting.
type Tracker struct {
	size uint32
	mode RotationMode

	live       *swiss.Map[utxo.Key, struct{}]
	spentTotal uint32 // spends matched against live, cumulative.
	checkpoint uint32 // spentTotal at the start of the current window.
	history    []float64

	lastHeight uint32
	seen       bool // at least one event observed; lastHeight is valid.
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRotationMode sets the boundary check mode. Defaults to RotateEveryEvent.
func WithRotationMode(mode RotationMode) Option {
	return func(t *Tracker) { t.mode = mode }
}

// WithLiveCapacity presizes the live set.
func WithLiveCapacity(n uint32) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.live = swiss.NewMap[utxo.Key, struct{}](n)
		}
	}
}

// NewTracker creates a tracker for windows of the given size.
func NewTracker(size uint32, opts ...Option) (*Tracker, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}
	t := &Tracker{size: size, mode: RotateEveryEvent}
	for _, opt := range opts {
		opt(t)
	}
	if t.live == nil {
		t.live = swiss.NewMap[utxo.Key, struct{}](defaultLiveCapacity)
	}
	return t, nil
}

// Observe applies one event. It reports whether the event closed a window
// and whether it was a spend matched against the live set.
func (t *Tracker) Observe(ev utxo.Event) (rotated, matched bool) {
	if t.shouldCheckBoundary(ev.Height) && ev.Height%t.size == 0 && t.live.Count() > 0 {
		t.rotate()
		rotated = true
	}
	t.lastHeight, t.seen = ev.Height, true

	if ev.Spend {
		if t.live.Has(ev.Key) {
			t.spentTotal++
			matched = true
		}
		return rotated, matched
	}
	t.live.Put(ev.Key, struct{}{})
	return rotated, false
}

func (t *Tracker) shouldCheckBoundary(height uint32) bool {
	if t.mode == RotateOncePerHeight {
		return !t.seen || height != t.lastHeight
	}
	return true
}

func (t *Tracker) rotate() {
	ratio := float64(t.spentTotal-t.checkpoint) / float64(t.live.Count())
	t.history = append(t.history, ratio)
	t.live.Clear()
	t.checkpoint = t.spentTotal
}

// Size returns the window size.
func (t *Tracker) Size() uint32 { return t.size }

// Mode returns the rotation mode.
func (t *Tracker) Mode() RotationMode { return t.mode }

// Spent returns the cumulative number of matched spends.
func (t *Tracker) Spent() uint32 { return t.spentTotal }

// Checkpoint returns the matched-spend count at the start of the current window.
func (t *Tracker) Checkpoint() uint32 { return t.checkpoint }

// Live returns the current live set size.
func (t *Tracker) Live() int { return t.live.Count() }

// History returns the recorded ratio samples. The slice is owned by the tracker.
func (t *Tracker) History() []float64 { return t.history }

// Rotations returns the number of windows closed so far.
func (t *Tracker) Rotations() int { return len(t.history) }
