package systemdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ClaimRepository handles the claim-history table.
type ClaimRepository struct {
	client *Client
}

// NewClaimRepository returns a repository bound to client.
func NewClaimRepository(client *Client) *ClaimRepository {
	return &ClaimRepository{client: client}
}

// Create inserts a new claim record, mirroring a finalized reward-claim tx.
func (r *ClaimRepository) Create(ctx context.Context, c *Claim) (*Claim, error) {
	c.ID = uuid.New()
	query := `INSERT INTO claims (
			id, stake_addr, payment_addr, asset_fingerprint, amount, contract_id, tenant_id,
			tx_hash, invalidation_reason
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`
	err := r.client.db.QueryRowContext(ctx, query,
		c.ID, c.StakeAddr, c.PaymentAddr, c.AssetFp, c.Amount, c.ContractID, c.TenantID,
		c.TxHash, c.InvalidationReason,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("systemdb: create claim: %w", err)
	}
	return c, nil
}

// ExistsForTxHash reports whether a claim row already exists for a given
// tx-hash, used to make the claim-recording side of a double-finalize race
// idempotent.
func (r *ClaimRepository) ExistsForTxHash(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	err := r.client.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM claims WHERE tx_hash = $1)`, txHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("systemdb: check claim existence: %w", err)
	}
	return exists, nil
}
