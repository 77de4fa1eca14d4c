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

// minRegistryOutputAda is the floor ada a validator-registry UTxO must
// carry alongside its identity NFT and inline datum.
const minRegistryOutputAda = 2_000_000

// ValidatorRegister mints a single identity NFT under the registry's fixed
// minting policy and locks it at the registry contract address with a
// datum binding the NFT to the operator's payment-key hash and network
// endpoint, making the registration queryable straight off the UTxO.
type ValidatorRegister struct {
	RegistryAddr Address.Address
	NativeScript []byte // the registry's ENNFT minting policy
	AssetName    []byte // identity token name, unique per validator
	OperatorPKH  [28]byte
	NetworkAddr  []byte // operator-supplied endpoint, opaque to this platform
}

var _ txbuilder.Step = (*ValidatorRegister)(nil)
var _ txbuilder.PostProcess = (*ValidatorRegister)(nil)

func (r *ValidatorRegister) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(r.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: validator register requires a native script")
	}
	datum, err := txcodec.BuildPlutusConstr(0,
		txcodec.PlutusBytes(r.OperatorPKH[:]),
		txcodec.PlutusBytes(r.NetworkAddr),
	)
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	policy := txcodec.ScriptHash(r.NativeScript)
	unit := apollo.NewUnit(hex.EncodeToString(policy[:]), hex.EncodeToString(r.AssetName), 1)
	txb.PayToContract(r.RegistryAddr, datum, minRegistryOutputAda, true, unit)
	return 1, txbuilder.ExUnits{}, nil
}

func (r *ValidatorRegister) Certificates() []byte { return nil }

func (r *ValidatorRegister) Mint() []byte {
	policy := txcodec.ScriptHash(r.NativeScript)
	return []byte(txcodec.Mint([]txcodec.MintEntry{
		{PolicyID: policy, AssetName: r.AssetName, Quantity: 1},
	}))
}

func (r *ValidatorRegister) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(r.NativeScript))
}
