package txcodec

import (
	"fmt"

	"github.com/Salvionied/apollo/serialization/PlutusData"
	"github.com/Salvionied/cbor/v2"
)

// BuildPlutusConstr encodes a small (alternative 0-6) Plutus Data
// constructor application — CBOR tag 121+alternative wrapping a definite
// array of already-encoded fields — the shape every marketplace datum and
// redeemer this platform builds uses; no contract here needs an
// alternative beyond 6 or a list/map-shaped datum.
func BuildPlutusConstr(alternative uint64, fields ...cbor.RawMessage) (*PlutusData.PlutusData, error) {
	if alternative > 6 {
		return nil, fmt.Errorf("txcodec: plutus constructor alternative %d unsupported, only 0-6", alternative)
	}
	tag := 121 + alternative
	tagged := append(encodeHead(6, tag), RawArraySlice(fields)...)
	var pd PlutusData.PlutusData
	if err := cbor.Unmarshal(tagged, &pd); err != nil {
		return nil, fmt.Errorf("txcodec: decoding plutus data: %w", err)
	}
	return &pd, nil
}

// PlutusInt encodes an integer field of a Plutus Data constructor.
func PlutusInt(n int64) cbor.RawMessage { return RawInt(n) }

// PlutusBytes encodes a byte-string field of a Plutus Data constructor.
func PlutusBytes(b []byte) cbor.RawMessage { return RawBytes(b) }
