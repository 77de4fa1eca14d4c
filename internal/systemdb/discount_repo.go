package systemdb

import (
	"context"
	"fmt"
)

// DiscountRepository handles the discount-rule table.
type DiscountRepository struct {
	client *Client
}

// NewDiscountRepository returns a repository bound to client.
func NewDiscountRepository(client *Client) *DiscountRepository {
	return &DiscountRepository{client: client}
}

// ListForContract returns every discount rule configured for a contract.
func (r *DiscountRepository) ListForContract(ctx context.Context, tenantID, contractID int64) ([]DiscountRule, error) {
	query := `SELECT id, contract_id, tenant_id, policy_id, fingerprint, metadata_path
		FROM discount_rule WHERE tenant_id = $1 AND contract_id = $2`
	rows, err := r.client.db.QueryContext(ctx, query, tenantID, contractID)
	if err != nil {
		return nil, fmt.Errorf("systemdb: list discount rules: %w", err)
	}
	defer rows.Close()

	var out []DiscountRule
	for rows.Next() {
		var d DiscountRule
		if err := rows.Scan(&d.ID, &d.ContractID, &d.TenantID, &d.PolicyID, &d.Fingerprint, &d.MetadataPath); err != nil {
			return nil, fmt.Errorf("systemdb: scan discount rule: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
