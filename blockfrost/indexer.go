package blockfrost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// bfPoolHistoryEntry is one epoch's row of /pools/{id}/history.
type bfPoolHistoryEntry struct {
	Epoch       int    `json:"epoch"`
	ActiveStake string `json:"active_stake"`
}

// PoolTotalStake fetches a pool's active stake for the given epoch from Blockfrost's
// pool-history endpoint.
func (b *BlockfrostProvider) PoolTotalStake(
	ctx context.Context,
	poolId string,
	epoch int,
) (uint64, error) {
	var history []bfPoolHistoryEntry
	path := fmt.Sprintf("/pools/%s/history", poolId)
	if err := b.doRequest(ctx, "GET", path, nil, &history); err != nil {
		return 0, fmt.Errorf("failed to get pool history for %s: %w", poolId, err)
	}
	for _, h := range history {
		if h.Epoch == epoch {
			var amount uint64
			if _, err := fmt.Sscanf(h.ActiveStake, "%d", &amount); err != nil {
				return 0, fmt.Errorf("invalid active_stake for pool %s epoch %d: %w", poolId, epoch, err)
			}
			return amount, nil
		}
	}
	return 0, fmt.Errorf(
		"no stake snapshot for pool %s at epoch %d: %w",
		poolId, epoch, connector.ErrNotFound,
	)
}

// bfDelegator is one row of /pools/{id}/delegators.
type bfDelegator struct {
	Address     string `json:"address"`
	LiveStake   string `json:"live_stake"`
}

// PerPoolEpochStake approximates the per-delegator epoch-stake snapshot using the
// pool's current delegator list. Blockfrost has no historical per-delegator endpoint;
// this is accurate for the current epoch only and is documented as a Non-goal gap
// for past epochs.
func (b *BlockfrostProvider) PerPoolEpochStake(
	ctx context.Context,
	poolId string,
	epoch int,
) ([]connector.PoolStakeEntry, error) {
	var out []connector.PoolStakeEntry
	page := 1
	for {
		var delegators []bfDelegator
		path := fmt.Sprintf("/pools/%s/delegators?page=%d", poolId, page)
		if err := b.doRequest(ctx, "GET", path, nil, &delegators); err != nil {
			if page == 1 && errors.Is(err, connector.ErrNotFound) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to get delegators for pool %s: %w", poolId, err)
		}
		if len(delegators) == 0 {
			break
		}
		for _, d := range delegators {
			var amount uint64
			if _, err := fmt.Sscanf(d.LiveStake, "%d", &amount); err != nil {
				continue
			}
			out = append(out, connector.PoolStakeEntry{StakeAddress: d.Address, Amount: amount})
		}
		if len(delegators) < 100 {
			break
		}
		page++
	}
	return out, nil
}

// IsStakeRegistered reports whether a stake address has an active registration.
func (b *BlockfrostProvider) IsStakeRegistered(
	ctx context.Context,
	stakeAddress string,
) (bool, error) {
	var details BlockfrostAccountDetails
	path := "/accounts/" + stakeAddress
	err := b.doRequest(ctx, "GET", path, nil, &details)
	if err != nil {
		if errors.Is(err, connector.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get account details for %s: %w", stakeAddress, err)
	}
	return details.Active, nil
}

// FirstTxAddressOf resolves the canonical payment address for a stake address: the
// first entry of Blockfrost's /accounts/{stake}/addresses list in ascending order.
func (b *BlockfrostProvider) FirstTxAddressOf(
	ctx context.Context,
	stakeAddress string,
) (string, error) {
	var addrs []struct {
		Address string `json:"address"`
	}
	path := fmt.Sprintf("/accounts/%s/addresses?order=asc&count=1", stakeAddress)
	if err := b.doRequest(ctx, "GET", path, nil, &addrs); err != nil {
		return "", fmt.Errorf("failed to get addresses for %s: %w", stakeAddress, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf(
			"no payment address found for stake address %s: %w",
			stakeAddress, connector.ErrNotFound,
		)
	}
	return addrs[0].Address, nil
}

// MintMetadata fetches the on-chain minting transaction metadata for an asset.
func (b *BlockfrostProvider) MintMetadata(
	ctx context.Context,
	fingerprint string,
) ([]byte, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/assets/%s", fingerprint)
	if err := b.doRequest(ctx, "GET", path, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", fingerprint, err)
	}
	return raw, nil
}
