package intents

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// StakeDeregister withdraws a tenant's script-controlled stake credential
// from delegation, releasing its registration deposit back to the reward
// account apollo's own balancing already returns to the change address.
type StakeDeregister struct {
	NativeScript []byte
}

var _ txbuilder.Step = (*StakeDeregister)(nil)
var _ txbuilder.PostProcess = (*StakeDeregister)(nil)

func (d *StakeDeregister) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(d.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: stake deregister requires a native script")
	}
	return 1, txbuilder.ExUnits{}, nil
}

func (d *StakeDeregister) Certificates() []byte {
	hash := txcodec.ScriptHash(d.NativeScript)
	return []byte(txcodec.Certificates(txcodec.StakeDeregistrationCert(hash)))
}

func (d *StakeDeregister) Mint() []byte { return nil }

func (d *StakeDeregister) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(d.NativeScript))
}
