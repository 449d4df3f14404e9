// Package source reads newline-delimited event records from files and streams.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxRecordSize bounds a single input line.
const MaxRecordSize = 1 << 20

// Stdin is the path that selects standard input.
const Stdin = "-"

// Reader yields one record per line of an underlying stream.
type Reader struct {
	r      io.Reader
	closer func() error
	name   string
}

// NewReader wraps r. Close is a no-op.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{r: r, name: name, closer: func() error { return nil }}
}

// Open opens path for reading. "-" selects stdin; paths ending in .gz or
// .zst are decompressed on the fly.
func Open(path string) (*Reader, error) {
	if path == Stdin {
		return NewReader("stdin", os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip input %s: %w", path, err)
		}
		return &Reader{r: gz, name: path, closer: func() error {
			return errors.Join(gz.Close(), f.Close())
		}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd input %s: %w", path, err)
		}
		return &Reader{r: zr, name: path, closer: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	default:
		return &Reader{r: f, name: path, closer: f.Close}, nil
	}
}

// Name describes the input for logs.
func (r *Reader) Name() string { return r.name }

// Scan calls fn for every line in order, blank lines included, and returns
// nil at end of stream. The first error from fn or the underlying reader
// stops the scan.
func (r *Reader) Scan(ctx context.Context, fn func(record string) error) error {
	sc := bufio.NewScanner(r.r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxRecordSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", r.name, err)
	}
	return nil
}

// Close releases the underlying file and decompressor.
func (r *Reader) Close() error {
	return r.closer()
}
