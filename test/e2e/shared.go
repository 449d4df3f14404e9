//go:build e2e

package e2e

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxo-turnover/pkg/clickhouse"
	"github.com/ava-labs/utxo-turnover/pkg/utxo"
)

func getEnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func queryCount(t *testing.T, ctx context.Context, ch clickhouse.Client, query string, args ...any) uint64 {
	t.Helper()
	var cnt uint64
	require.NoError(t, ch.Conn().QueryRow(ctx, query, args...).Scan(&cnt))
	return cnt
}

// stream is a synthetic event stream with its decoded form.
type stream struct {
	records []string
	events  []utxo.Event
}

// buildStream creates two outputs per height and, from the second height on,
// spends the first output created one height earlier.
func buildStream(heights uint32) stream {
	var s stream
	txid := func(h uint32) chainhash.Hash {
		var hash chainhash.Hash
		hash[0], hash[1], hash[2], hash[3] = byte(h), byte(h>>8), byte(h>>16), byte(h>>24)
		hash[31] = 0xee
		return hash
	}
	for h := uint32(1); h <= heights; h++ {
		id := txid(h)
		for idx := uint32(0); idx < 2; idx++ {
			s.records = append(s.records, fmt.Sprintf("o %d %s %d", h, hex.EncodeToString(id[:]), idx))
			s.events = append(s.events, utxo.Event{Height: h, Key: utxo.NewKey(id, idx)})
		}
		if h > 1 {
			prev := txid(h - 1)
			s.records = append(s.records, fmt.Sprintf("i %d %s 0", h, prev.String()))
			s.events = append(s.events, utxo.Event{Spend: true, Height: h, Key: utxo.NewKey(prev, 0)})
		}
	}
	return s
}
