package utxo

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

const (
	// TxIDSize is the size of a transaction identifier in bytes.
	TxIDSize = chainhash.HashSize
	// KeySize is the size of a canonical output key: txid followed by the output index.
	KeySize = TxIDSize + 4
)

// Key identifies a transaction output: the 32 identifier bytes in creation
// order followed by the big-endian output index.
type Key [KeySize]byte

// NewKey builds the canonical key for output index of txid. The identifier
// must already be in creation byte order.
func NewKey(txid chainhash.Hash, index uint32) Key {
	var k Key
	copy(k[:TxIDSize], txid[:])
	binary.BigEndian.PutUint32(k[TxIDSize:], index)
	return k
}

// TxID returns the identifier part of the key.
func (k Key) TxID() chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], k[:TxIDSize])
	return h
}

// Index returns the output index part of the key.
func (k Key) Index() uint32 {
	return binary.BigEndian.Uint32(k[TxIDSize:])
}

// String renders the key as lowercase hex, identifier first.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Event is a single creation or consumption of an output at a block height.
type Event struct {
	Spend  bool
	Height uint32
	Key    Key
}
