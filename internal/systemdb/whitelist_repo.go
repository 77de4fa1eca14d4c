package systemdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrWhitelistNotFound is returned when no token-whitelist row matches.
var ErrWhitelistNotFound = errors.New("systemdb: token whitelist not found")

// WhitelistRepository handles token_whitelist and its companion address
// allocation table wl_alloc.
type WhitelistRepository struct {
	client *Client
}

// NewWhitelistRepository returns a repository bound to client.
func NewWhitelistRepository(client *Client) *WhitelistRepository {
	return &WhitelistRepository{client: client}
}

func scanWhitelist(row interface{ Scan(...interface{}) error }) (*TokenWhitelist, error) {
	w := &TokenWhitelist{}
	err := row.Scan(
		&w.ID, &w.ContractID, &w.TenantID, &w.AssetFp, &w.Mode, &w.Equation, &w.Modifier,
		&w.VestingDate, &w.StartEpoch, &w.EndEpoch, pq.Array(&w.PoolList), &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

const whitelistColumns = `id, contract_id, tenant_id, asset_fingerprint, mode, equation, modifier,
	vesting_date, start_epoch, end_epoch, pool_list, created_at, updated_at`

// ListEligible returns every whitelist row eligible for calcEpoch whose
// contract is not deprecated: start_epoch ≤ calcEpoch.
func (r *WhitelistRepository) ListEligible(ctx context.Context, calcEpoch int) ([]TokenWhitelist, error) {
	query := `SELECT ` + whitelistColumns + ` FROM token_whitelist tw
		JOIN contracts c ON c.contract_id = tw.contract_id AND c.tenant_id = tw.tenant_id
		WHERE tw.start_epoch <= $1 AND c.deprecated = false
		  AND (tw.end_epoch IS NULL OR tw.end_epoch >= $1)`
	rows, err := r.client.db.QueryContext(ctx, query, calcEpoch)
	if err != nil {
		return nil, fmt.Errorf("systemdb: list eligible whitelists: %w", err)
	}
	defer rows.Close()

	var out []TokenWhitelist
	for rows.Next() {
		w, err := scanWhitelist(rows)
		if err != nil {
			return nil, fmt.Errorf("systemdb: scan whitelist: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// SetModifier persists the computed total_staked value onto a whitelist's
// modifier field for fixed-end-epoch mode.
func (r *WhitelistRepository) SetModifier(ctx context.Context, id int64, modifier string) error {
	_, err := r.client.db.ExecContext(ctx,
		`UPDATE token_whitelist SET modifier = $1, updated_at = now() WHERE id = $2`, modifier, id)
	if err != nil {
		return fmt.Errorf("systemdb: set whitelist modifier: %w", err)
	}
	return nil
}

// ListAllocations returns every address-whitelist member for a whitelist-id
// sentinel, feeding the reward engine's step-4 address-whitelist path.
func (r *WhitelistRepository) ListAllocations(ctx context.Context, whitelistID string) ([]WlAlloc, error) {
	query := `SELECT id, whitelist_id, tenant_id, stake_addr, weight
		FROM wl_alloc WHERE whitelist_id = $1`
	rows, err := r.client.db.QueryContext(ctx, query, whitelistID)
	if err != nil {
		return nil, fmt.Errorf("systemdb: list wl_alloc: %w", err)
	}
	defer rows.Close()

	var out []WlAlloc
	for rows.Next() {
		var a WlAlloc
		if err := rows.Scan(&a.ID, &a.WhitelistID, &a.TenantID, &a.StakeAddr, &a.Weight); err != nil {
			return nil, fmt.Errorf("systemdb: scan wl_alloc: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
