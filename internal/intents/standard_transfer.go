// Package intents holds one handler per transaction intent the gateway
// accepts, each wiring internal/txbuilder.Build with the inputs, outputs,
// certificates, and redeemers specific to that intent.
package intents

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Amount"
	"github.com/Salvionied/apollo/serialization/Asset"
	"github.com/Salvionied/apollo/serialization/MultiAsset"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/Salvionied/apollo/serialization/Value"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
)

// TransferRecipient is one destination of a standard-transfer intent: an
// address and the ada-plus-assets value it should receive.
type TransferRecipient struct {
	Address Address.Address
	Amount  Value.Value
}

// StandardTransfer moves value from one or more wallet addresses to one or
// more recipients, with change returning to the sender. It never touches
// certificates, mint, or redeemers, so it implements only Step.
type StandardTransfer struct {
	Recipients []TransferRecipient
}

var _ txbuilder.Step = (*StandardTransfer)(nil)

// Apply adds one PayToAddress call per recipient; apollo balances the
// transaction and returns whatever change is left to the builder's change
// address on its own. A plain transfer carries no Plutus redeemers, so its
// vkey count is fixed at one (the sender) and its execution-unit budget is
// always zero.
func (s *StandardTransfer) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if len(s.Recipients) == 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: standard transfer requires at least one recipient")
	}
	for _, r := range s.Recipients {
		units := unitsOf(r.Amount)
		txb = txb.PayToAddress(r.Address, int(r.Amount.GetCoin()), units...)
	}
	return 1, txbuilder.ExUnits{}, nil
}

// unitsOf converts a Value's non-ada assets into the apollo.Unit list
// PayToAddress/PayToContract accept alongside a lovelace amount.
func unitsOf(v Value.Value) []apollo.Unit {
	var units []apollo.Unit
	for policy, assets := range v.GetAssets() {
		for name, qty := range assets {
			units = append(units, apollo.NewUnit(policy.Value, name.String(), int(qty)))
		}
	}
	return units
}

// TransferNeed sums a standard transfer's recipients into the Value
// SelectInputs must cover, the entry point every intent's build call shares
// before invoking txbuilder.Build.
func TransferNeed(recipients []TransferRecipient) Value.Value {
	total := Value.Value{Coin: 0}
	for _, r := range recipients {
		total = addValues(total, r.Amount)
	}
	return total
}

func addValues(a, b Value.Value) Value.Value {
	coin := a.GetCoin() + b.GetCoin()
	merged := make(MultiAsset.MultiAsset[int64])
	mergeInto := func(v Value.Value) {
		for policy, perPolicy := range v.GetAssets() {
			if merged[policy] == nil {
				merged[policy] = make(Asset.Asset[int64])
			}
			for name, qty := range perPolicy {
				merged[policy][name] += qty
			}
		}
	}
	mergeInto(a)
	mergeInto(b)
	if len(merged) == 0 {
		return Value.Value{Coin: coin}
	}
	return Value.Value{Am: Amount.Amount{Coin: coin, Value: merged}, HasAssets: true}
}

// AvailableUTxOsFor flattens a provider's per-address UTxO query across a
// sender's wallet addresses into the candidate set SelectInputs scans.
func AvailableUTxOsFor(ctx context.Context, lookup func(ctx context.Context, addr string) ([]UTxO.UTxO, error), addresses []string) ([]UTxO.UTxO, error) {
	var all []UTxO.UTxO
	for _, addr := range addresses {
		utxos, err := lookup(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("intents: loading utxos for %s: %w", addr, err)
		}
		all = append(all, utxos...)
	}
	return all, nil
}
