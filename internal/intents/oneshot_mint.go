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

// OneshotMint mints a single freshly named asset under a one-time-use
// native script — typically a before-slot time-lock that can never mint
// again once its policy expires — straight to the buyer's payment address.
// Unlike CollectionMint it never touches an existing project's pre-assigned
// asset names.
type OneshotMint struct {
	Recipient    Address.Address
	NativeScript []byte
	AssetName    []byte
	Quantity     int64
}

var _ txbuilder.Step = (*OneshotMint)(nil)
var _ txbuilder.PostProcess = (*OneshotMint)(nil)

func (m *OneshotMint) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(m.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: oneshot mint requires a native script")
	}
	if m.Quantity <= 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: oneshot mint requires a positive quantity")
	}
	policy := txcodec.ScriptHash(m.NativeScript)
	unit := apollo.NewUnit(hex.EncodeToString(policy[:]), hex.EncodeToString(m.AssetName), int(m.Quantity))
	txb.PayToAddress(m.Recipient, minClaimOutputAda, unit)
	return 1, txbuilder.ExUnits{}, nil
}

func (m *OneshotMint) Certificates() []byte { return nil }

func (m *OneshotMint) Mint() []byte {
	policy := txcodec.ScriptHash(m.NativeScript)
	return []byte(txcodec.Mint([]txcodec.MintEntry{
		{PolicyID: policy, AssetName: m.AssetName, Quantity: m.Quantity},
	}))
}

func (m *OneshotMint) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(m.NativeScript))
}
