package systemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
)

// ErrMultipleAccrualRows signals a fatal integrity violation: more than one
// row exists for the same (stake_addr, asset_fp, contract_id, tenant_id) key.
var ErrMultipleAccrualRows = errors.New(
	"systemdb: more than one reward accrual row for the same (stake_addr, asset_fp, contract_id, tenant_id)",
)

// RewardRepository handles the reward_accrual table. All arithmetic on
// earned/claimed amounts is exact (math/big.Rat decimal strings), never
// float, .
type RewardRepository struct {
	client *Client
}

// NewRewardRepository returns a repository bound to client.
func NewRewardRepository(client *Client) *RewardRepository {
	return &RewardRepository{client: client}
}

// GetRows fetches every accrual row for (stakeAddr, fingerprint, contractID,
// tenantID) — normally zero or one, normally.
func (r *RewardRepository) GetRows(
	ctx context.Context,
	stakeAddr, fingerprint string,
	contractID, tenantID int64,
) ([]RewardAccrual, error) {
	query := `SELECT id, stake_addr, payment_addr, asset_fingerprint, contract_id, tenant_id,
		total_earned, total_claimed, oneshot, last_calc_epoch, created_at, updated_at
		FROM reward_accrual
		WHERE stake_addr = $1 AND asset_fingerprint = $2 AND contract_id = $3 AND tenant_id = $4`
	rows, err := r.client.db.QueryContext(ctx, query, stakeAddr, fingerprint, contractID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("systemdb: get reward rows: %w", err)
	}
	defer rows.Close()

	var out []RewardAccrual
	for rows.Next() {
		var a RewardAccrual
		if err := rows.Scan(
			&a.ID, &a.StakeAddr, &a.PaymentAddr, &a.AssetFp, &a.ContractID, &a.TenantID,
			&a.TotalEarned, &a.TotalClaimed, &a.Oneshot, &a.LastCalcEpoch, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("systemdb: scan reward row: %w", err)
		}
		out = append(out, a)
	}
	if len(out) > 1 {
		return nil, ErrMultipleAccrualRows
	}
	return out, rows.Err()
}

// Create inserts a brand-new accrual row with total_claimed = 0.
func (r *RewardRepository) Create(ctx context.Context, a *RewardAccrual) error {
	query := `INSERT INTO reward_accrual (
			stake_addr, payment_addr, asset_fingerprint, contract_id, tenant_id,
			total_earned, total_claimed, oneshot, last_calc_epoch
		) VALUES ($1,$2,$3,$4,$5,$6,'0',$7,$8)
		RETURNING id, created_at, updated_at`
	return r.client.db.QueryRowContext(ctx, query,
		a.StakeAddr, a.PaymentAddr, a.AssetFp, a.ContractID, a.TenantID,
		a.TotalEarned, a.Oneshot, a.LastCalcEpoch,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// UpdateEarned overwrites total_earned and last_calc_epoch for an existing
// row with a single UPDATE by id; it does not read or lock the row first.
func (r *RewardRepository) UpdateEarned(ctx context.Context, id int64, totalEarned string, lastCalcEpoch int) error {
	_, err := r.client.db.ExecContext(ctx,
		`UPDATE reward_accrual SET total_earned = $1, last_calc_epoch = $2, updated_at = now()
		 WHERE id = $3`, totalEarned, lastCalcEpoch, id)
	if err != nil {
		return fmt.Errorf("systemdb: update reward earned: %w", err)
	}
	return nil
}

// BumpEpochOnly advances last_calc_epoch without changing total_earned —
// the already-credited branch of reward handling.
func (r *RewardRepository) BumpEpochOnly(ctx context.Context, id int64, lastCalcEpoch int) error {
	_, err := r.client.db.ExecContext(ctx,
		`UPDATE reward_accrual SET last_calc_epoch = $1, updated_at = now() WHERE id = $2`,
		lastCalcEpoch, id)
	if err != nil {
		return fmt.Errorf("systemdb: bump calc epoch: %w", err)
	}
	return nil
}

// Claim moves `amount` from available (earned-claimed) into total_claimed
// inside a row-locked transaction, refusing if it would exceed total_earned
// or if amount exceeds the
// available balance.
func (r *RewardRepository) Claim(ctx context.Context, id int64, amount *big.Rat) error {
	return r.client.WithTx(ctx, func(tx *sql.Tx) error {
		var earnedStr, claimedStr string
		err := tx.QueryRowContext(ctx,
			`SELECT total_earned, total_claimed FROM reward_accrual WHERE id = $1 FOR UPDATE`, id,
		).Scan(&earnedStr, &claimedStr)
		if err != nil {
			return fmt.Errorf("lock reward row: %w", err)
		}

		earned, ok := new(big.Rat).SetString(earnedStr)
		if !ok {
			return fmt.Errorf("systemdb: corrupt total_earned %q", earnedStr)
		}
		claimed, ok := new(big.Rat).SetString(claimedStr)
		if !ok {
			return fmt.Errorf("systemdb: corrupt total_claimed %q", claimedStr)
		}

		available := new(big.Rat).Sub(earned, claimed)
		if available.Cmp(amount) < 0 {
			return fmt.Errorf("systemdb: claim amount exceeds available balance")
		}

		newClaimed := new(big.Rat).Add(claimed, amount)
		if _, err := tx.ExecContext(ctx,
			`UPDATE reward_accrual SET total_claimed = $1, updated_at = now() WHERE id = $2`,
			newClaimed.RatString(), id); err != nil {
			return fmt.Errorf("update claimed: %w", err)
		}
		return nil
	})
}
