package maestro

import (
	"context"

	connector "github.com/zenGate-Global/cardano-tx-platform"
)

// PoolTotalStake is not exposed by Maestro's REST surface without a companion
// pool-performance add-on; treated as a Non-goal gap.
func (m *MaestroProvider) PoolTotalStake(ctx context.Context, poolId string, epoch int) (uint64, error) {
	return 0, connector.ErrNotImplemented
}

// PerPoolEpochStake: see PoolTotalStake.
func (m *MaestroProvider) PerPoolEpochStake(
	ctx context.Context,
	poolId string,
	epoch int,
) ([]connector.PoolStakeEntry, error) {
	return nil, connector.ErrNotImplemented
}

// IsStakeRegistered uses the delegation lookup Maestro already exposes and returns
// the account's registered flag from it.
func (m *MaestroProvider) IsStakeRegistered(ctx context.Context, stakeAddress string) (bool, error) {
	d, err := m.GetDelegation(ctx, stakeAddress)
	if err != nil {
		return false, err
	}
	return d.Active, nil
}

// FirstTxAddressOf is not exposed by Maestro's account endpoints; requires a
// dbsync-backed indexer.
func (m *MaestroProvider) FirstTxAddressOf(ctx context.Context, stakeAddress string) (string, error) {
	return "", connector.ErrNotImplemented
}

// MintMetadata is not exposed by Maestro's asset endpoints in the subset this
// adapter targets; requires a dbsync-backed indexer.
func (m *MaestroProvider) MintMetadata(ctx context.Context, fingerprint string) ([]byte, error) {
	return nil, connector.ErrNotImplemented
}
