package intents

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/cbor/v2"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// StakeDelegate delegates a tenant's script-controlled stake credential to a
// stake pool, registering the credential first if it isn't already. The
// reward address's credential must be the hash of NativeScript — this
// platform never delegates a bare-key stake credential.
type StakeDelegate struct {
	NativeScript []byte // hex-decoded multisig script backing the stake credential
	PoolKeyHash  [28]byte
	Registered   bool // true if the stake credential is already on chain
}

var _ txbuilder.Step = (*StakeDelegate)(nil)
var _ txbuilder.PostProcess = (*StakeDelegate)(nil)

// Apply carries no payment outputs of its own; delegation only spends a
// small flat deposit-free fee, paid from whichever inputs SelectInputs
// picked, and apollo's own change output covers the rest.
func (d *StakeDelegate) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(d.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: stake delegate requires a native script")
	}
	return 1, txbuilder.ExUnits{}, nil
}

// Certificates returns the optional stake-registration certificate followed
// by the stake-delegation certificate, per stake_registration "must precede
// or coincide with" the delegation it backs.
func (d *StakeDelegate) Certificates() []byte {
	hash := txcodec.ScriptHash(d.NativeScript)
	var certs []cbor.RawMessage
	if !d.Registered {
		certs = append(certs, txcodec.StakeRegistrationCert(hash))
	}
	certs = append(certs, txcodec.StakeDelegationCert(hash, d.PoolKeyHash))
	return []byte(txcodec.Certificates(certs...))
}

func (d *StakeDelegate) Mint() []byte { return nil }

// NativeScripts attaches the multisig script backing the stake credential so
// the witness set proves authority to certify on its behalf.
func (d *StakeDelegate) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(d.NativeScript))
}
