package turnover

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxo-turnover/pkg/utxo"
)

func key(b byte, index uint32) utxo.Key {
	var h chainhash.Hash
	h[0] = b
	return utxo.NewKey(h, index)
}

func create(height uint32, k utxo.Key) utxo.Event {
	return utxo.Event{Height: height, Key: k}
}

func spend(height uint32, k utxo.Key) utxo.Event {
	return utxo.Event{Spend: true, Height: height, Key: k}
}

func newTracker(t *testing.T, size uint32, opts ...Option) *Tracker {
	t.Helper()
	tr, err := NewTracker(size, opts...)
	require.NoError(t, err)
	return tr
}

func TestNewTracker_ZeroSize(t *testing.T) {
	t.Parallel()
	_, err := NewTracker(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewTracker_Defaults(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 6)
	assert.Equal(t, uint32(6), tr.Size())
	assert.Equal(t, RotateEveryEvent, tr.Mode())
	assert.Zero(t, tr.Spent())
	assert.Zero(t, tr.Checkpoint())
	assert.Zero(t, tr.Live())
	assert.Empty(t, tr.History())
}

func TestTracker_NoSpends(t *testing.T) {
	t.Parallel()
	for _, size := range []uint32{1, 2, 3, 7} {
		tr := newTracker(t, size)
		for h := uint32(0); h < 50; h++ {
			tr.Observe(create(h, key(byte(h), h)))
			tr.Observe(create(h, key(byte(h), h+1000)))
		}
		assert.Zero(t, tr.Spent(), "size %d", size)
		for _, ratio := range tr.History() {
			assert.Zero(t, ratio, "size %d", size)
		}
	}
}

func TestTracker_MatchesSpendWithinWindow(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 10)
	a, b := key(0xaa, 0), key(0xbb, 1)

	_, matched := tr.Observe(create(10, a))
	assert.False(t, matched)
	tr.Observe(create(12, b))
	rotated, matched := tr.Observe(spend(15, a))
	assert.False(t, rotated)
	assert.True(t, matched)

	assert.Equal(t, uint32(1), tr.Spent())
	// Matched keys stay in the live set.
	assert.Equal(t, 2, tr.Live())

	rotated, _ = tr.Observe(create(20, key(0xcc, 0)))
	require.True(t, rotated)
	assert.Equal(t, []float64{0.5}, tr.History())
	assert.Equal(t, uint32(1), tr.Checkpoint())
	assert.Equal(t, 1, tr.Live())
}

func TestTracker_UnknownSpendIgnored(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 10)
	tr.Observe(create(11, key(1, 0)))
	_, matched := tr.Observe(spend(12, key(2, 0)))
	assert.False(t, matched)
	assert.Zero(t, tr.Spent())
}

func TestTracker_DoubleSpendCountsTwice(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 100)
	k := key(1, 0)
	tr.Observe(create(1, k))
	tr.Observe(spend(2, k))
	tr.Observe(spend(3, k))
	assert.Equal(t, uint32(2), tr.Spent())
}

func TestTracker_ReinsertIsIdempotent(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 100)
	k := key(1, 0)
	tr.Observe(create(1, k))
	tr.Observe(create(2, k))
	assert.Equal(t, 1, tr.Live())
}

func TestTracker_BoundaryWithEmptyLiveSetDoesNotRotate(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 5)
	rotated, _ := tr.Observe(create(0, key(1, 0)))
	assert.False(t, rotated)
	rotated, _ = tr.Observe(spend(5, key(9, 9)))
	assert.True(t, rotated)
	rotated, _ = tr.Observe(spend(5, key(9, 9)))
	assert.False(t, rotated)
	assert.Equal(t, 1, tr.Rotations())
}

func TestTracker_RotationModes(t *testing.T) {
	t.Parallel()
	// Every event at height 10 repopulates the live set.
	stream := []utxo.Event{
		create(9, key(1, 0)),
		create(10, key(2, 0)),
		create(10, key(3, 0)),
		create(10, key(4, 0)),
		create(11, key(5, 0)),
		create(20, key(6, 0)),
	}
	tests := []struct {
		name          string
		mode          RotationMode
		wantRotations int
		wantLive      int
	}{
		{name: "every event", mode: RotateEveryEvent, wantRotations: 4, wantLive: 1},
		{name: "once per height", mode: RotateOncePerHeight, wantRotations: 2, wantLive: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTracker(t, 10, WithRotationMode(tt.mode))
			for _, ev := range stream {
				tr.Observe(ev)
			}
			assert.Equal(t, tt.wantRotations, tr.Rotations())
			assert.Equal(t, tt.wantLive, tr.Live())
		})
	}
}

func TestTracker_RotationCountMatchesBoundaryHeights(t *testing.T) {
	t.Parallel()
	// One creation per height keeps the live set non-empty at every boundary
	// after the first event.
	const size = 4
	tr := newTracker(t, size)
	want := 0
	for h := uint32(1); h <= 40; h++ {
		if h%size == 0 && tr.Live() > 0 {
			want++
		}
		tr.Observe(create(h, key(byte(h), 0)))
	}
	assert.Equal(t, want, tr.Rotations())
	assert.Equal(t, 10, want)
}

func TestTracker_RatioUsesWindowDelta(t *testing.T) {
	t.Parallel()
	tr := newTracker(t, 10)
	a, b, c, d := key(1, 0), key(2, 0), key(3, 0), key(4, 0)

	tr.Observe(create(1, a))
	tr.Observe(create(2, b))
	tr.Observe(spend(3, a))
	tr.Observe(spend(4, b))
	tr.Observe(create(10, c)) // closes window 1: 2 spends / 2 live
	tr.Observe(create(11, d))
	tr.Observe(spend(12, c))
	tr.Observe(create(20, a)) // closes window 2: 1 spend / 2 live

	assert.Equal(t, []float64{1, 0.5}, tr.History())
	assert.Equal(t, uint32(3), tr.Spent())
	assert.Equal(t, uint32(3), tr.Checkpoint())
}

func TestTracker_Scenarios(t *testing.T) {
	t.Parallel()
	aa := key(0xaa, 0)
	bb := key(0xbb, 1)
	tests := []struct {
		name      string
		stream    []utxo.Event
		wantSpent map[uint32]uint32
	}{
		{
			// The boundary at height 30 clears the live set before the spend
			// is matched.
			name:      "spend at boundary height",
			stream:    []utxo.Event{create(10, aa), create(20, bb), spend(30, aa)},
			wantSpent: map[uint32]uint32{10: 0, 20: 0},
		},
		{
			name:      "spend inside window",
			stream:    []utxo.Event{create(10, aa), create(12, bb), spend(15, aa)},
			wantSpent: map[uint32]uint32{10: 1, 20: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for size, want := range tt.wantSpent {
				tr := newTracker(t, size)
				for _, ev := range tt.stream {
					tr.Observe(ev)
				}
				assert.Equal(t, want, tr.Spent(), "size %d", size)
			}
		})
	}
}

func TestRotationMode_ParseAndString(t *testing.T) {
	t.Parallel()
	for _, mode := range []RotationMode{RotateEveryEvent, RotateOncePerHeight} {
		got, err := ParseRotationMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	got, err := ParseRotationMode("")
	require.NoError(t, err)
	assert.Equal(t, RotateEveryEvent, got)

	_, err = ParseRotationMode("hourly")
	require.Error(t, err)
	assert.Equal(t, "RotationMode(7)", RotationMode(7).String())
}
