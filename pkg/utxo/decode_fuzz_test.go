package utxo

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzDecode tests Decode with random inputs to find panics or crashes.
// Run with: go test -fuzz=FuzzDecode -fuzztime=30s ./pkg/utxo/
func FuzzDecode(f *testing.F) {
	f.Add("")
	f.Add("i")
	f.Add("o 1 00 0")
	f.Add("o 10 aa00000000000000000000000000000000000000000000000000000000000000 0")
	f.Add("i 30 00000000000000000000000000000000000000000000000000000000000000aa 0")
	f.Add("i 4294967296 zz 1")

	f.Fuzz(func(t *testing.T, record string) {
		ev, err := Decode(record)
		if err != nil {
			return
		}
		txid := ev.Key.TxID()

		// The same output described from either side yields the same key.
		created, err := Decode(fmt.Sprintf("o %d %s %d", ev.Height, hex.EncodeToString(txid[:]), ev.Key.Index()))
		require.NoError(t, err)
		spent, err := Decode(fmt.Sprintf("i %d %s %d", ev.Height, txid.String(), ev.Key.Index()))
		require.NoError(t, err)

		require.Equal(t, ev.Key, created.Key)
		require.Equal(t, ev.Key, spent.Key)
	})
}
