package txcodec

import (
	"fmt"

	"github.com/Salvionied/cbor/v2"
)

// SplitTransaction decodes a full CBOR transaction — the four-element array
// [body, witness_set, is_valid, auxiliary_data] apollo's builder emits from
// GetTx().Bytes() — into its three persisted components without touching
// their internal structure. The raw-tx record stores body/witness/aux
// separately so finalize can reconstruct and re-sign without re-deriving
// them from scratch.
func SplitTransaction(raw []byte) (body, witness, aux []byte, err error) {
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &parts); err != nil {
		return nil, nil, nil, fmt.Errorf("txcodec: decoding transaction array: %w", err)
	}
	if len(parts) != 4 {
		return nil, nil, nil, fmt.Errorf("txcodec: expected 4-element transaction array, got %d", len(parts))
	}
	return []byte(parts[0]), []byte(parts[1]), []byte(parts[3]), nil
}

// JoinTransaction re-assembles a transaction from its split components,
// the inverse of SplitTransaction. isValid is true for every intent this
// platform builds; the field only turns false for Plutus transactions a
// wallet submits knowing a script will fail, which the platform never does.
func JoinTransaction(body, witness, aux []byte) ([]byte, error) {
	if len(aux) == 0 {
		aux = []byte{0xf6} // CBOR null
	}
	parts := []cbor.RawMessage{body, witness, cborTrue, aux}
	raw, err := cbor.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("txcodec: encoding transaction array: %w", err)
	}
	return raw, nil
}

var cborTrue = cbor.RawMessage{0xf5}

// PatchBody overlays raw CBOR fragments onto an already-encoded transaction
// body map, adding or replacing the certificates (key 4) and mint (key 9)
// fields without disturbing any field apollo's builder already populated
// (fee, inputs, outputs, script-data hash, collateral, and so on). Handlers
// that need certificates or a mint field — neither of which the builder's
// fluent API exposes — assemble those fragments by hand and splice them in
// here, after the builder has produced its best-effort transaction.
func PatchBody(body []byte, certs []byte, mint []byte) ([]byte, error) {
	fields := map[uint64]cbor.RawMessage{}
	if err := cbor.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("txcodec: decoding transaction body map: %w", err)
	}
	if len(certs) > 0 {
		fields[4] = certs
	}
	if len(mint) > 0 {
		fields[9] = mint
	}
	patched, err := cbor.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("txcodec: re-encoding transaction body map: %w", err)
	}
	return patched, nil
}

// PatchWitnessSet overlays native-script CBOR (key 1) onto an already
// encoded witness-set map, the same splice PatchBody performs for bodies.
func PatchWitnessSet(witness []byte, nativeScripts []byte) ([]byte, error) {
	if len(nativeScripts) == 0 {
		return witness, nil
	}
	fields := map[uint64]cbor.RawMessage{}
	if err := cbor.Unmarshal(witness, &fields); err != nil {
		return nil, fmt.Errorf("txcodec: decoding witness set map: %w", err)
	}
	fields[1] = nativeScripts
	patched, err := cbor.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("txcodec: re-encoding witness set map: %w", err)
	}
	return patched, nil
}
