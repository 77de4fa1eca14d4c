package intents

import (
	"context"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// ValidatorUnregister spends a registry UTxO with the unregister redeemer
// and burns its identity NFT, retiring the validator; the registry validator
// checks the transaction is signed by the operator key the datum names.
type ValidatorUnregister struct {
	RegistryUTxO  UTxO.UTxO
	ScriptRefUTxO UTxO.UTxO
	NativeScript  []byte
	AssetName     []byte
}

var _ txbuilder.Step = (*ValidatorUnregister)(nil)
var _ txbuilder.PostProcess = (*ValidatorUnregister)(nil)

func (u *ValidatorUnregister) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	redeemer, err := txcodec.BuildPlutusConstr(1) // Unregister has no fields
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	txb.AddReferenceInput(u.ScriptRefUTxO)
	txb.CollectFrom(u.RegistryUTxO, *redeemer)
	return 1, txbuilder.ExUnits{}, nil
}

func (u *ValidatorUnregister) Certificates() []byte { return nil }

func (u *ValidatorUnregister) Mint() []byte {
	policy := txcodec.ScriptHash(u.NativeScript)
	return []byte(txcodec.Mint([]txcodec.MintEntry{
		{PolicyID: policy, AssetName: u.AssetName, Quantity: -1},
	}))
}

func (u *ValidatorUnregister) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(u.NativeScript))
}
