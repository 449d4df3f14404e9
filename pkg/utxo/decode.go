package utxo

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// SpendTag is the direction field value that marks a consumption record.
// Any other value marks a creation.
const SpendTag = "i"

var (
	ErrMissingField  = errors.New("missing field")
	ErrInvalidHeight = errors.New("invalid height")
	ErrInvalidIndex  = errors.New("invalid output index")
	ErrInvalidTxID   = errors.New("invalid transaction id")
)

// Decode parses one whitespace-delimited record of the form
//
//	direction height txid_hex vout_index
//
// into an Event. Fields past the fourth are ignored.
//
// Spend records reference the transaction identifier in display order (the
// reverse of the order creation records use), so on the spend path the
// identifier is byte-reversed before the index is appended. Both
// descriptions of the same output therefore yield the same Key.
func Decode(record string) (Event, error) {
	fields := strings.Fields(record)
	if len(fields) < 4 {
		return Event{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMissingField, len(fields))
	}

	spend := fields[0] == SpendTag

	height, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q: %w", ErrInvalidHeight, fields[1], err)
	}

	txid, err := decodeTxID(fields[2], spend)
	if err != nil {
		return Event{}, err
	}

	index, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q: %w", ErrInvalidIndex, fields[3], err)
	}

	return Event{
		Spend:  spend,
		Height: uint32(height),
		Key:    NewKey(txid, uint32(index)),
	}, nil
}

func decodeTxID(s string, displayOrder bool) (chainhash.Hash, error) {
	if len(s) != 2*TxIDSize {
		return chainhash.Hash{}, fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidTxID, 2*TxIDSize, len(s))
	}
	if i := strings.IndexFunc(s, isUpperHex); i >= 0 {
		return chainhash.Hash{}, fmt.Errorf("%w: uppercase digit %q at %d", ErrInvalidTxID, s[i], i)
	}

	if displayOrder {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return chainhash.Hash{}, fmt.Errorf("%w: %w", ErrInvalidTxID, err)
		}
		return *h, nil
	}

	var h chainhash.Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %w", ErrInvalidTxID, err)
	}
	return h, nil
}

func isUpperHex(r rune) bool { return r >= 'A' && r <= 'F' }
