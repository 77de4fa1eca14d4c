package kupmios

import (
	"context"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// Kupo/Ogmios expose chain state and UTxO matches but no epoch-stake history or
// mint-metadata index; these require a companion dbsync/mimir reader and are
// treated as a Non-goal gap here.

func (kp *KupmiosProvider) PoolTotalStake(ctx context.Context, poolId string, epoch int) (uint64, error) {
	return 0, connector.ErrNotImplemented
}

func (kp *KupmiosProvider) PerPoolEpochStake(
	ctx context.Context,
	poolId string,
	epoch int,
) ([]connector.PoolStakeEntry, error) {
	return nil, connector.ErrNotImplemented
}

func (kp *KupmiosProvider) IsStakeRegistered(ctx context.Context, stakeAddress string) (bool, error) {
	d, err := kp.GetDelegation(ctx, stakeAddress)
	if err != nil {
		return false, err
	}
	return d.Active, nil
}

func (kp *KupmiosProvider) FirstTxAddressOf(ctx context.Context, stakeAddress string) (string, error) {
	return "", connector.ErrNotImplemented
}

func (kp *KupmiosProvider) MintMetadata(ctx context.Context, fingerprint string) ([]byte, error) {
	return nil, connector.ErrNotImplemented
}
