package intents

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Value"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// TreasuryPayout moves liquidity out of a tenant's treasury contract address
// to a verified recipient wallet. The caller must have already re-verified
// the payout request's stored hash against its current row — see
// systemdb.PayoutRepository.VerifyHash — before constructing this Step, so
// a user- or admin-approval edit invalidates any in-flight build.
type TreasuryPayout struct {
	Recipient    Address.Address
	Amount       Value.Value
	NativeScript []byte // the treasury contract's multisig script
}

var _ txbuilder.Step = (*TreasuryPayout)(nil)
var _ txbuilder.PostProcess = (*TreasuryPayout)(nil)

func (p *TreasuryPayout) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(p.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: treasury payout requires a native script")
	}
	units := unitsOf(p.Amount)
	txb.PayToAddress(p.Recipient, int(p.Amount.GetCoin()), units...)
	return 1, txbuilder.ExUnits{}, nil
}

func (p *TreasuryPayout) Certificates() []byte { return nil }
func (p *TreasuryPayout) Mint() []byte         { return nil }

// NativeScripts attaches the treasury multisig script so the witness set
// proves authority to spend from the contract address.
func (p *TreasuryPayout) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(p.NativeScript))
}

// PayoutNeed is the Value SelectInputs must cover for a treasury payout.
func PayoutNeed(amount Value.Value) Value.Value { return amount }
