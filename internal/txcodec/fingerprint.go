// Package txcodec holds the internal, CBOR-tagged transaction-part structs
// that flow between the builder core and the raw-tx store, and the
// fingerprint hashing the rest of the platform keys records by.
package txcodec

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

// RawTxFingerprint computes the domain-separated SHA-224 digest that keys a
// raw-tx record: unsigned bytes, aux-data bytes, stake-address bytes, and the
// two serialized context blobs, each length-prefixed so no ambiguous
// concatenation can collide two distinct records onto the same hash.
func RawTxFingerprint(unsigned, aux, stakeAddr, context, intentContext []byte) string {
	h := sha256.New224()
	for _, part := range [][]byte{unsigned, aux, stakeAddr, context, intentContext} {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AssetFingerprint computes the CIP-14 asset fingerprint: bech32("asset",
// blake2b-160(policy_id || asset_name)).
func AssetFingerprint(policyIDHex, assetNameHex string) (string, error) {
	policy, err := hex.DecodeString(policyIDHex)
	if err != nil {
		return "", fmt.Errorf("txcodec: invalid policy id: %w", err)
	}
	assetName, err := hex.DecodeString(assetNameHex)
	if err != nil {
		return "", fmt.Errorf("txcodec: invalid asset name: %w", err)
	}

	hasher, err := blake2b.New(20, nil)
	if err != nil {
		return "", fmt.Errorf("txcodec: blake2b-160 init: %w", err)
	}
	hasher.Write(policy)
	hasher.Write(assetName)
	sum := hasher.Sum(nil)

	conv, err := bech32.ConvertBits(sum, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("txcodec: bech32 bit conversion: %w", err)
	}
	encoded, err := bech32.Encode("asset", conv)
	if err != nil {
		return "", fmt.Errorf("txcodec: bech32 encode: %w", err)
	}
	return encoded, nil
}
