package turnover

import (
	"github.com/dolthub/swiss"

	"github.com/ava-labs/utxo-turnover/pkg/utxo"
)

// Ledger tracks the unspent outputs of the whole stream.
type Ledger struct {
	unspent *swiss.Map[utxo.Key, struct{}]
	inputs  uint64
	outputs uint64
}

// NewLedger creates an empty ledger presized for capacity outputs.
func NewLedger(capacity uint32) *Ledger {
	if capacity == 0 {
		capacity = defaultLiveCapacity
	}
	return &Ledger{unspent: swiss.NewMap[utxo.Key, struct{}](capacity)}
}

// Observe inserts created outputs and removes spent ones. Spends of unknown
// outputs are counted but otherwise ignored.
func (l *Ledger) Observe(ev utxo.Event) {
	if ev.Spend {
		l.inputs++
		l.unspent.Delete(ev.Key)
		return
	}
	l.outputs++
	l.unspent.Put(ev.Key, struct{}{})
}

// Unspent returns the number of outputs created and not yet spent.
func (l *Ledger) Unspent() int { return l.unspent.Count() }

// Inputs returns the number of spend events observed.
func (l *Ledger) Inputs() uint64 { return l.inputs }

// Outputs returns the number of creation events observed.
func (l *Ledger) Outputs() uint64 { return l.outputs }

// Contains reports whether key is currently unspent.
func (l *Ledger) Contains(key utxo.Key) bool { return l.unspent.Has(key) }
