package intents

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// CollectionToken is one pre-assigned NFT a CollectionMint handle mints —
// the project already decided which metadata-bound asset name a given
// claimant receives, unlike OneshotMint's fresh-per-call naming.
type CollectionToken struct {
	AssetName []byte
}

// CollectionMint mints one or more pre-assigned NFTs from an existing
// project's time-locked minting policy to a single buyer address, plus an
// optional flat mint fee to the project's fee wallet.
type CollectionMint struct {
	Recipient     Address.Address
	NativeScript  []byte
	Tokens        []CollectionToken
	FeeWalletAddr *Address.Address
	FeeLovelace   int64
}

var _ txbuilder.Step = (*CollectionMint)(nil)
var _ txbuilder.PostProcess = (*CollectionMint)(nil)

func (m *CollectionMint) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(m.Tokens) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: collection mint requires at least one token")
	}
	if len(m.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: collection mint requires a native minting script")
	}
	policy := txcodec.ScriptHash(m.NativeScript)
	units := make([]apollo.Unit, len(m.Tokens))
	for i, t := range m.Tokens {
		units[i] = apollo.NewUnit(hex.EncodeToString(policy[:]), hex.EncodeToString(t.AssetName), 1)
	}
	txb.PayToAddress(m.Recipient, minClaimOutputAda, units...)
	if m.FeeWalletAddr != nil && m.FeeLovelace > 0 {
		txb.PayToAddress(*m.FeeWalletAddr, int(m.FeeLovelace))
	}
	return 1, txbuilder.ExUnits{}, nil
}

func (m *CollectionMint) Certificates() []byte { return nil }

func (m *CollectionMint) Mint() []byte {
	policy := txcodec.ScriptHash(m.NativeScript)
	entries := make([]txcodec.MintEntry, len(m.Tokens))
	for i, t := range m.Tokens {
		entries[i] = txcodec.MintEntry{PolicyID: policy, AssetName: t.AssetName, Quantity: 1}
	}
	return []byte(txcodec.Mint(entries))
}

func (m *CollectionMint) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(m.NativeScript))
}
