package txcodec

import (
	"encoding/hex"

	"github.com/Salvionied/apollo/serialization/UTxO"
)

// RawTxRecord is the fingerprint-keyed record persisted by internal/store,
// matching the gateway's raw-tx record shape.
type RawTxRecord struct {
	_           struct{} `cbor:",toarray"`
	TxBody      []byte
	TxWitness   []byte
	TxUnsigned  []byte
	TxAux       []byte
	TxRawData   []byte // generic context blob
	TxSpecific  []byte // intent-specific context blob
	UsedUtxos   []UTxOOutRef
	StakeAddr   []byte
	TenantID    int64
	ContractIDs []int64
}

// UTxOOutRef is the outpoint shape persisted alongside a raw-tx record; kept
// distinct from connector.OutRef so txcodec has no dependency on the root
// connector package.
type UTxOOutRef struct {
	_     struct{} `cbor:",toarray"`
	Hash  string
	Index uint32
}

// FromSelectedUTxOs converts apollo UTxO.UTxO values into the outref shape
// the raw-tx record stores.
func FromSelectedUTxOs(utxos []UTxO.UTxO) []UTxOOutRef {
	refs := make([]UTxOOutRef, 0, len(utxos))
	for _, u := range utxos {
		refs = append(refs, UTxOOutRef{
			Hash:  hex.EncodeToString(u.Input.TransactionId),
			Index: uint32(u.Input.Index),
		})
	}
	return refs
}
