package txcodec

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Salvionied/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// TxBodyHash returns the blake2b-256 hash of a transaction body, the message
// every vkey witness signs.
func TxBodyHash(body []byte) [32]byte {
	return blake2b.Sum256(body)
}

// SignVkeyWitness signs a transaction body hash with an ed25519 signing key
// and returns one [vkey, signature] witness pair ready to splice into a
// witness set's vkeywitness array. Cardano payment keys are bip32-ed25519
// extended keys; this platform's service-held multisig co-signing keys are
// generated and stored as plain 32-byte ed25519 seeds (see keycustody),
// which is sufficient for the native-script multisig wallets every
// contract here uses and avoids pulling in a bip32-ed25519 implementation
// nothing in this stack otherwise needs.
func SignVkeyWitness(body []byte, priv ed25519.PrivateKey) cbor.RawMessage {
	hash := TxBodyHash(body)
	sig := ed25519.Sign(priv, hash[:])
	pub := priv.Public().(ed25519.PublicKey)
	return RawArray(RawBytes(pub), RawBytes(sig))
}

// AppendVkeyWitnesses overlays additional [vkey, signature] pairs onto an
// already-encoded witness-set map's vkeywitness array (key 0), preserving
// whatever witnesses are already present — a user-submitted witness merged
// ahead of the service's own co-signature, for instance.
func AppendVkeyWitnesses(witness []byte, extra ...cbor.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return witness, nil
	}
	fields := map[uint64]cbor.RawMessage{}
	if err := cbor.Unmarshal(witness, &fields); err != nil {
		return nil, fmt.Errorf("txcodec: decoding witness set map: %w", err)
	}
	var existing []cbor.RawMessage
	if raw, ok := fields[0]; ok {
		if err := cbor.Unmarshal(raw, &existing); err != nil {
			return nil, fmt.Errorf("txcodec: decoding existing vkeywitnesses: %w", err)
		}
	}
	existing = append(existing, extra...)
	fields[0] = RawArraySlice(existing)
	patched, err := cbor.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("txcodec: re-encoding witness set map: %w", err)
	}
	return patched, nil
}
