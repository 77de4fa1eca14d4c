package systemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrTenantNotFound is returned when no tenant row matches a lookup.
var ErrTenantNotFound = errors.New("systemdb: tenant not found")

// TenantRepository handles reads against the tenant table. Tenant id is the
// JWT `sub` claim the gateway decodes.
type TenantRepository struct {
	client *Client
}

// NewTenantRepository returns a repository bound to client.
func NewTenantRepository(client *Client) *TenantRepository {
	return &TenantRepository{client: client}
}

// GetByTenantID fetches the tenant row for a given tenant id.
func (r *TenantRepository) GetByTenantID(ctx context.Context, tenantID int64) (*Tenant, error) {
	query := `SELECT id, tenant_id, api_pubkey, username, email, role, permissions,
		company_name, cardano_wallet, wallet_verified, drasil_pubkey, created_at, updated_at
		FROM tenants WHERE tenant_id = $1`
	t := &Tenant{}
	err := r.client.db.QueryRowContext(ctx, query, tenantID).Scan(
		&t.ID, &t.TenantID, &t.APIPubkey, &t.Username, &t.Email, &t.Role, pq.Array(&t.Permissions),
		&t.CompanyName, &t.CardanoWallet, &t.WalletVerified, &t.DrasilPubkey, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get tenant: %w", err)
	}
	return t, nil
}
