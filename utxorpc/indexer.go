package utxorpc

import (
	"context"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// UTxORPC is a ledger-state/submit surface (u5c); it carries no epoch-stake
// history or mint-metadata index, so these require a companion dbsync/mimir
// reader and are treated as a Non-goal gap here.

func (u *UtxorpcProvider) PoolTotalStake(ctx context.Context, poolId string, epoch int) (uint64, error) {
	return 0, connector.ErrNotImplemented
}

func (u *UtxorpcProvider) PerPoolEpochStake(
	ctx context.Context,
	poolId string,
	epoch int,
) ([]connector.PoolStakeEntry, error) {
	return nil, connector.ErrNotImplemented
}

func (u *UtxorpcProvider) IsStakeRegistered(ctx context.Context, stakeAddress string) (bool, error) {
	d, err := u.GetDelegation(ctx, stakeAddress)
	if err != nil {
		return false, err
	}
	return d.Active, nil
}

func (u *UtxorpcProvider) FirstTxAddressOf(ctx context.Context, stakeAddress string) (string, error) {
	return "", connector.ErrNotImplemented
}

func (u *UtxorpcProvider) MintMetadata(ctx context.Context, fingerprint string) ([]byte, error) {
	return nil, connector.ErrNotImplemented
}
