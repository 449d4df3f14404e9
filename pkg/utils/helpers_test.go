package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowSizes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    []uint32
		wantErr bool
	}{
		{
			name:  "defaults",
			input: "1,6,144,1008,4320,52560",
			want:  []uint32{1, 6, 144, 1008, 4320, 52560},
		},
		{
			name:  "unsorted with duplicates",
			input: "144, 6,6 ,1",
			want:  []uint32{1, 6, 144},
		},
		{
			name:  "trailing comma",
			input: "10,20,",
			want:  []uint32{10, 20},
		},
		{
			name:  "max uint32",
			input: "4294967295",
			want:  []uint32{4294967295},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "only commas", input: ",,", wantErr: true},
		{name: "zero", input: "1,0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "overflow", input: "4294967296", wantErr: true},
		{name: "not a number", input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWindowSizes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWindowSizes_EmptyIsSentinel(t *testing.T) {
	t.Parallel()
	_, err := ParseWindowSizes(" ")
	require.ErrorIs(t, err, ErrNoWindowSizes)
}

func TestNormalizeWindowSizes_DoesNotModifyInput(t *testing.T) {
	t.Parallel()
	in := []uint32{20, 10, 20}
	out := NormalizeWindowSizes(in)
	assert.Equal(t, []uint32{10, 20}, out)
	assert.Equal(t, []uint32{20, 10, 20}, in)
}

func TestFormatWindowSizes_RoundTrip(t *testing.T) {
	t.Parallel()
	s := FormatWindowSizes(DefaultWindowSizes)
	assert.Equal(t, "1,6,144,1008,4320,52560", s)
	got, err := ParseWindowSizes(s)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowSizes, got)
}

func TestNewSugaredLogger(t *testing.T) {
	t.Parallel()
	for _, verbose := range []bool{true, false} {
		l, err := NewSugaredLogger(verbose)
		require.NoError(t, err)
		require.NotNil(t, l)
		l.Debugw("logger ready", "verbose", verbose)
	}
}
