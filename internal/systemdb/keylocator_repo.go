package systemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrKeyLocatorNotFound is returned when no key-locator row matches a lookup.
var ErrKeyLocatorNotFound = errors.New("systemdb: multisig key locator not found")

// KeyLocatorRepository handles the multisig_keyloc table: pointers to the
// encrypted signing keys for a (tenant, contract, version), never mutated
// once created.
type KeyLocatorRepository struct {
	client *Client
}

// NewKeyLocatorRepository returns a repository bound to client.
func NewKeyLocatorRepository(client *Client) *KeyLocatorRepository {
	return &KeyLocatorRepository{client: client}
}

// Get fetches the key locator for (tenantID, contractID, version).
func (r *KeyLocatorRepository) Get(
	ctx context.Context,
	tenantID, contractID int64,
	version float32,
) (*MultisigKeyLocator, error) {
	query := `SELECT id, tenant_id, contract_id, version, fee_wallet_addr, fee,
		ciphertexts, deprecated, created_at, updated_at
		FROM multisig_keyloc WHERE tenant_id = $1 AND contract_id = $2 AND version = $3`
	l := &MultisigKeyLocator{}
	err := r.client.db.QueryRowContext(ctx, query, tenantID, contractID, version).Scan(
		&l.ID, &l.TenantID, &l.ContractID, &l.Version, &l.FeeWalletAddr, &l.Fee,
		pq.Array(&l.Ciphertexts), &l.Deprecated, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyLocatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get key locator: %w", err)
	}
	return l, nil
}

// Create inserts a key locator row at contract-creation time. Locators are
// never mutated afterward; only a hard contract delete removes them.
func (r *KeyLocatorRepository) Create(ctx context.Context, l *MultisigKeyLocator) (*MultisigKeyLocator, error) {
	query := `INSERT INTO multisig_keyloc (
			tenant_id, contract_id, version, fee_wallet_addr, fee, ciphertexts, deprecated
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`
	err := r.client.db.QueryRowContext(ctx, query,
		l.TenantID, l.ContractID, l.Version, l.FeeWalletAddr, l.Fee, pq.Array(l.Ciphertexts), l.Deprecated,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("systemdb: create key locator: %w", err)
	}
	return l, nil
}
