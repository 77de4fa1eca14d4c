package txbuilder

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo/serialization/AssetName"
	"github.com/Salvionied/apollo/serialization/Policy"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/Salvionied/apollo/serialization/Value"

	"github.com/zenGate-Global/cardano-tx-platform/internal/store"
)

// minUTxOAda is the floor ada a plain change output must carry; the 10%
// safety margin SelectInputs adds on top absorbs the fee and any min-utxo
// bump the balancing pass introduces once the real outputs are known.
const minUTxOAda = 1_000_000

// ErrInsufficientFunds is returned when the available UTxO set cannot cover
// a build's required value even after every tier of the selection has run.
var ErrInsufficientFunds = fmt.Errorf("txbuilder: insufficient funds")

// SelectInputs assembles the UTxO set a Step hands to Build. It walks need's
// asset dimensions independently — one policy/asset-name pair at a time —
// preferring (a) a UTxO already carrying some of that asset, (b) the
// smallest single UTxO whose balance alone covers the remaining requirement,
// falling back to accumulating several asset-bearing UTxOs when no single
// one suffices. Once every asset dimension is covered it tops up with
// ada-only UTxOs for the coin requirement plus a 10%-plus-one-min-utxo
// safety margin. UTxOs already marked used in usedSet are skipped.
func SelectInputs(ctx context.Context, usedSet store.UsedUTxOSet, available []UTxO.UTxO, need Value.Value) ([]UTxO.UTxO, error) {
	free, err := filterUsed(ctx, usedSet, available)
	if err != nil {
		return nil, err
	}

	chosen := map[int]bool{}
	var selected []UTxO.UTxO
	haveCoin := int64(0)
	haveAssets := map[string]int64{} // "policyHex:assetName" -> quantity

	take := func(idx int) {
		chosen[idx] = true
		u := free[idx]
		selected = append(selected, u)
		amount := u.Output.GetAmount()
		haveCoin += amount.GetCoin()
		for policy, assets := range amount.GetAssets() {
			for name, qty := range assets {
				haveAssets[assetKey(policy, name)] += int64(qty)
			}
		}
	}

	for policy, assets := range need.GetAssets() {
		for name, qty := range assets {
			key := assetKey(policy, name)
			for haveAssets[key] < int64(qty) {
				idx, ok := pickAssetCandidate(free, chosen, policy, name, int64(qty)-haveAssets[key])
				if !ok {
					return nil, ErrInsufficientFunds
				}
				take(idx)
			}
		}
	}

	margin := need.GetCoin()/10 + minUTxOAda
	target := need.GetCoin() + margin
	for haveCoin < target {
		idx, ok := pickAdaCandidate(free, chosen, target-haveCoin)
		if !ok {
			return nil, ErrInsufficientFunds
		}
		take(idx)
	}

	return selected, nil
}

func assetKey(policy Policy.PolicyId, name AssetName.AssetName) string {
	return policy.Value + ":" + name.String()
}

// pickAssetCandidate returns the index of the best UTxO still carrying
// asset policy/name: the smallest one whose quantity alone meets remaining,
// or — if none suffices alone — the single largest holder, which the
// caller accumulates over successive calls.
func pickAssetCandidate(free []UTxO.UTxO, chosen map[int]bool, policy Policy.PolicyId, name AssetName.AssetName, remaining int64) (int, bool) {
	bestSufficient := -1
	bestSufficientQty := int64(0)
	bestPartial := -1
	bestPartialQty := int64(0)

	for i, u := range free {
		if chosen[i] {
			continue
		}
		assets := u.Output.GetAmount().GetAssets()
		policyAssets, ok := assets[policy]
		if !ok {
			continue
		}
		qty, ok := policyAssets[name]
		if !ok || qty == 0 {
			continue
		}
		q := int64(qty)
		if q >= remaining {
			if bestSufficient < 0 || q < bestSufficientQty {
				bestSufficient, bestSufficientQty = i, q
			}
			continue
		}
		if q > bestPartialQty {
			bestPartial, bestPartialQty = i, q
		}
	}

	if bestSufficient >= 0 {
		return bestSufficient, true
	}
	if bestPartial >= 0 {
		return bestPartial, true
	}
	return -1, false
}

// pickAdaCandidate returns the smallest ada-only UTxO that alone covers
// remaining, or else the single largest remaining candidate, accumulated
// over successive calls.
func pickAdaCandidate(free []UTxO.UTxO, chosen map[int]bool, remaining int64) (int, bool) {
	bestSufficient := -1
	bestSufficientCoin := int64(0)
	bestLargest := -1
	bestLargestCoin := int64(0)

	for i, u := range free {
		if chosen[i] {
			continue
		}
		if len(u.Output.GetAmount().GetAssets()) > 0 {
			continue
		}
		coin := u.Output.GetAmount().GetCoin()
		if coin >= remaining {
			if bestSufficient < 0 || coin < bestSufficientCoin {
				bestSufficient, bestSufficientCoin = i, coin
			}
			continue
		}
		if coin > bestLargestCoin {
			bestLargest, bestLargestCoin = i, coin
		}
	}

	if bestSufficient >= 0 {
		return bestSufficient, true
	}
	if bestLargest >= 0 {
		return bestLargest, true
	}
	return -1, false
}

func filterUsed(ctx context.Context, usedSet store.UsedUTxOSet, available []UTxO.UTxO) ([]UTxO.UTxO, error) {
	if usedSet == nil {
		return available, nil
	}
	free := make([]UTxO.UTxO, 0, len(available))
	for _, u := range available {
		outpoint := store.Outpoint{TxHash: txHashHex(u), Index: uint32(u.Input.Index)}
		used, err := usedSet.IsUsed(ctx, outpoint)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: checking used-utxo set: %w", err)
		}
		if !used {
			free = append(free, u)
		}
	}
	return free, nil
}

func txHashHex(utxo UTxO.UTxO) string {
	return fmt.Sprintf("%x", utxo.Input.TransactionId)
}
