package utils

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultWindowSizes covers one block up to roughly one year of blocks.
var DefaultWindowSizes = []uint32{1, 6, 144, 1008, 4320, 52560}

var ErrNoWindowSizes = errors.New("no window sizes")

// ParseWindowSizes parses a comma separated list of window sizes into an
// ascending, de-duplicated slice. Sizes must be positive 32-bit integers.
func ParseWindowSizes(s string) ([]uint32, error) {
	var sizes []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid window size %q: %w", part, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("invalid window size %q: must be greater than zero", part)
		}
		sizes = append(sizes, uint32(v))
	}
	if len(sizes) == 0 {
		return nil, ErrNoWindowSizes
	}
	return NormalizeWindowSizes(sizes), nil
}

// NormalizeWindowSizes sorts sizes ascending and drops duplicates. The input
// slice is not modified.
func NormalizeWindowSizes(sizes []uint32) []uint32 {
	out := slices.Clone(sizes)
	slices.Sort(out)
	return slices.Compact(out)
}

// FormatWindowSizes is the inverse of ParseWindowSizes.
func FormatWindowSizes(sizes []uint32) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.FormatUint(uint64(s), 10)
	}
	return strings.Join(parts, ",")
}
