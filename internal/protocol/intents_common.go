package protocol

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Amount"
	"github.com/Salvionied/apollo/serialization/Asset"
	"github.com/Salvionied/apollo/serialization/AssetName"
	"github.com/Salvionied/apollo/serialization/MultiAsset"
	"github.com/Salvionied/apollo/serialization/Policy"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/Salvionied/apollo/serialization/Value"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// assetParam is the wire shape an intent's CBOR params carry for one
// non-ada unit: hex policy id, hex asset name, quantity in the asset's
// smallest unit.
type assetParam struct {
	PolicyID  string
	AssetName string
	Quantity  int64
}

// valueOf builds a Value from a lovelace amount plus a list of asset
// params, the same non-ada-aware shape every wallet-funded intent needs to
// hand SelectInputs as its need.
func valueOf(lovelace int64, assets []assetParam) (Value.Value, error) {
	if len(assets) == 0 {
		return Value.Value{Coin: lovelace}, nil
	}
	merged := make(MultiAsset.MultiAsset[int64])
	for _, a := range assets {
		if _, err := hex.DecodeString(a.PolicyID); err != nil {
			return Value.Value{}, fmt.Errorf("protocol: decoding policy id %q: %w", a.PolicyID, err)
		}
		name := AssetName.NewAssetNameFromHexString(a.AssetName)
		policy := Policy.PolicyId{Value: a.PolicyID}
		if merged[policy] == nil {
			merged[policy] = make(Asset.Asset[int64])
		}
		merged[policy][*name] += a.Quantity
	}
	return Value.Value{Am: Amount.Amount{Coin: lovelace, Value: merged}, HasAssets: true}, nil
}

// decodeAddr decodes one bech32 address field out of an intent's params.
func decodeAddr(addr string) (Address.Address, error) {
	if addr == "" {
		return Address.Address{}, fmt.Errorf("protocol: missing address")
	}
	return Address.DecodeAddress(addr)
}

// decodeHash28 decodes a hex native-script or operator key hash into a
// fixed 28-byte array.
func decodeHash28(h string) ([28]byte, error) {
	var out [28]byte
	b, err := hex.DecodeString(h)
	if err != nil {
		return out, fmt.Errorf("protocol: hash %q does not hex-decode: %w", h, err)
	}
	if len(b) != 28 {
		return out, fmt.Errorf("protocol: hash %q is %d bytes, want 28", h, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// fetchUTxO resolves one specific on-chain UTxO by its tx hash and output
// index, the shape every intent that spends a known reference UTxO
// (a marketplace listing, a validator registry slot, a script reference)
// needs before it can build its Step.
func fetchUTxO(ctx context.Context, provider connector.Provider, txHash string, index uint32) (UTxO.UTxO, error) {
	utxos, err := provider.GetUtxosByOutRef(ctx, []connector.OutRef{{TxHash: txHash, Index: index}})
	if err != nil {
		return UTxO.UTxO{}, fmt.Errorf("protocol: fetching utxo %s#%d: %w", txHash, index, err)
	}
	if len(utxos) == 0 {
		return UTxO.UTxO{}, fmt.Errorf("protocol: utxo %s#%d not found", txHash, index)
	}
	return utxos[0], nil
}

// nullInt reads a sql.NullInt64, treating NULL as zero.
func nullInt(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}
