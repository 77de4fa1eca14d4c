package systemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrContractNotFound is returned when no contract row matches a lookup.
var ErrContractNotFound = errors.New("systemdb: contract not found")

// ContractRepository handles reads/writes against the contracts table.
type ContractRepository struct {
	client *Client
}

// NewContractRepository returns a repository bound to client.
func NewContractRepository(client *Client) *ContractRepository {
	return &ContractRepository{client: client}
}

const contractColumns = `id, tenant_id, contract_id, contract_type, description, version,
	plutus, address, policy_id, deprecated, drasil_lqdty, customer_lqdty,
	external_lqdty, created_at, updated_at`

func scanContract(row interface{ Scan(...interface{}) error }) (*Contract, error) {
	c := &Contract{}
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ContractID, &c.ContractType, &c.Description, &c.Version,
		&c.Plutus, &c.Address, &c.PolicyID, &c.Deprecated, &c.DrasilLqdty, &c.CustomerLqdty,
		&c.ExternalLqdty, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Get fetches the contract identified by (tenantID, contractID). Cross-tenant
// reads never occur because tenantID is always part of the WHERE clause.
func (r *ContractRepository) Get(ctx context.Context, tenantID, contractID int64) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE tenant_id = $1 AND contract_id = $2`
	c, err := scanContract(r.client.db.QueryRowContext(ctx, query, tenantID, contractID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get contract: %w", err)
	}
	return c, nil
}

// GetActiveByType fetches the one active (non-deprecated) contract of a
// given type for a tenant, enforcing the "exactly one active contract
// of a given type per tenant when required by that type" invariant at read
// time.
func (r *ContractRepository) GetActiveByType(
	ctx context.Context,
	tenantID int64,
	contractType ContractType,
) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
		WHERE tenant_id = $1 AND contract_type = $2 AND deprecated = false
		ORDER BY version DESC LIMIT 1`
	c, err := scanContract(r.client.db.QueryRowContext(ctx, query, tenantID, contractType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get active contract: %w", err)
	}
	return c, nil
}

// ListByTenant returns every contract row belonging to tenantID, newest
// first, backing the gateway's admin contract-listing route.
func (r *ContractRepository) ListByTenant(ctx context.Context, tenantID int64) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE tenant_id = $1 ORDER BY id DESC`
	rows, err := r.client.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("systemdb: list contracts: %w", err)
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("systemdb: scanning contract row: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create inserts a new contract row. Deprecated contracts reject new builds
// but accept finalizes; that check belongs to the handler layer, not here.
func (r *ContractRepository) Create(ctx context.Context, c *Contract) (*Contract, error) {
	query := `INSERT INTO contracts (
			tenant_id, contract_id, contract_type, description, version, plutus,
			address, policy_id, deprecated, drasil_lqdty, customer_lqdty, external_lqdty
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`
	err := r.client.db.QueryRowContext(ctx, query,
		c.TenantID, c.ContractID, c.ContractType, c.Description, c.Version, c.Plutus,
		c.Address, c.PolicyID, c.Deprecated, c.DrasilLqdty, c.CustomerLqdty, c.ExternalLqdty,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("systemdb: create contract: %w", err)
	}
	return c, nil
}

// AdjustLiquidity moves delta lovelace into the named liquidity counter
// (drasil/customer/external), used by treasury-payout's "available ada =
// on-chain ada − contract liquidity counter" gate.
func (r *ContractRepository) AdjustLiquidity(
	ctx context.Context,
	tx *sql.Tx,
	tenantID, contractID int64,
	column string,
	delta int64,
) error {
	switch column {
	case "drasil_lqdty", "customer_lqdty", "external_lqdty":
	default:
		return fmt.Errorf("systemdb: invalid liquidity column %q", column)
	}
	query := fmt.Sprintf(
		`UPDATE contracts SET %s = COALESCE(%s, 0) + $1, updated_at = now()
		 WHERE tenant_id = $2 AND contract_id = $3`,
		column, column,
	)
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, delta, tenantID, contractID)
	} else {
		_, err = r.client.db.ExecContext(ctx, query, delta, tenantID, contractID)
	}
	if err != nil {
		return fmt.Errorf("systemdb: adjust liquidity: %w", err)
	}
	return nil
}
