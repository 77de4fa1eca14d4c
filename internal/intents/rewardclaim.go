package intents

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// minClaimOutputAda is the floor ada a reward-token output must carry,
// matching the ledger's minimum-UTxO rule for any output that isn't pure
// change.
const minClaimOutputAda = 1_000_000

// RewardClaim pays a claimant their outstanding reward-token balance — the
// accrual's total earned minus whatever it has already paid out — from the
// reward contract's script-held token stash to the claimant's payment
// address. Building it is idempotent on its own; the caller is responsible
// for rejecting a re-claim of an accrual systemdb.ClaimRepository already
// has a row for, the same "finalize is a replay, not a rebuild" rule the
// platform's two-phase protocol applies everywhere.
type RewardClaim struct {
	PaymentAddr  Address.Address
	PolicyID     [28]byte
	AssetName    []byte
	Quantity     *big.Int // earned minus claimed, in the asset's smallest unit
	NativeScript []byte   // the reward contract's multisig/time-lock script
}

var _ txbuilder.Step = (*RewardClaim)(nil)
var _ txbuilder.PostProcess = (*RewardClaim)(nil)

func (c *RewardClaim) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(c.NativeScript) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: reward claim requires a native script")
	}
	if c.Quantity == nil || c.Quantity.Sign() <= 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: reward claim requires a positive outstanding balance")
	}
	if !c.Quantity.IsInt64() {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: reward claim quantity overflows an int64 token amount")
	}
	unit := apollo.NewUnit(hex.EncodeToString(c.PolicyID[:]), hex.EncodeToString(c.AssetName), int(c.Quantity.Int64()))
	txb.PayToAddress(c.PaymentAddr, minClaimOutputAda, unit)
	return 1, txbuilder.ExUnits{}, nil
}

func (c *RewardClaim) Certificates() []byte { return nil }
func (c *RewardClaim) Mint() []byte         { return nil }

func (c *RewardClaim) NativeScripts() []byte {
	return []byte(txcodec.NativeScripts(c.NativeScript))
}
