package systemdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrPayoutNotFound is returned when no payout row matches a lookup.
var ErrPayoutNotFound = errors.New("systemdb: payout request not found")

// ErrPayoutHashMismatch signals a payout row whose stored hash does not match its content:
// "approval binds hash(current-row) == stored-hash".
var ErrPayoutHashMismatch = errors.New("systemdb: payout hash mismatch")

// PayoutRepository handles the payout ledger and its companion hash table.
type PayoutRepository struct {
	client *Client
}

// NewPayoutRepository returns a repository bound to client.
func NewPayoutRepository(client *Client) *PayoutRepository {
	return &PayoutRepository{client: client}
}

// HashPayout computes the binding hash over a payout row's mutable content,
// used both to seal a row at user-approval time and to re-verify it before
// treasury-payout finalize.
func HashPayout(p *PayoutRequest) string {
	h := sha256.New()
	h.Write([]byte(p.ID.String()))
	h.Write(p.ValueJSON)
	h.Write([]byte(p.PayoutStatus))
	return hex.EncodeToString(h.Sum(nil))
}

// Create inserts a new pending payout row and its hash binding in one
// transaction.
func (r *PayoutRepository) Create(ctx context.Context, p *PayoutRequest) (*PayoutRequest, error) {
	p.ID = uuid.New()
	p.PayoutStatus = PayoutPending

	err := r.client.WithTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO payout_requests (
				id, tenant_id, contract_id, value_json, tx_hash, user_sig, admin_sig,
				blockchain_status, payout_status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING created_at, updated_at`
		if err := tx.QueryRowContext(ctx, query,
			p.ID, p.TenantID, p.ContractID, p.ValueJSON, p.TxHash, p.UserSig, p.AdminSig,
			p.BlockchainStatus, p.PayoutStatus,
		).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("insert payout: %w", err)
		}

		hash := HashPayout(p)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payout_hashes (payout_id, hash, signed_at) VALUES ($1,$2,$3)`,
			p.ID, hash, time.Now())
		if err != nil {
			return fmt.Errorf("insert payout hash: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("systemdb: create payout: %w", err)
	}
	return p, nil
}

// Get fetches a payout row by id.
func (r *PayoutRepository) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*PayoutRequest, error) {
	query := `SELECT id, tenant_id, contract_id, value_json, tx_hash, user_sig, admin_sig,
		blockchain_status, payout_status, created_at, updated_at
		FROM payout_requests WHERE tenant_id = $1 AND id = $2`
	p := &PayoutRequest{}
	err := r.client.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.ContractID, &p.ValueJSON, &p.TxHash, &p.UserSig, &p.AdminSig,
		&p.BlockchainStatus, &p.PayoutStatus, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get payout: %w", err)
	}
	return p, nil
}

// VerifyHash re-hashes the current row and compares it against the stored
// payout-hash, failing the treasury-payout handler's pre-condition
// with an integrity-violation kind when they diverge.
func (r *PayoutRepository) VerifyHash(ctx context.Context, p *PayoutRequest) error {
	var stored string
	err := r.client.db.QueryRowContext(ctx,
		`SELECT hash FROM payout_hashes WHERE payout_id = $1`, p.ID).Scan(&stored)
	if err != nil {
		return fmt.Errorf("systemdb: fetch payout hash: %w", err)
	}
	if stored != HashPayout(p) {
		return ErrPayoutHashMismatch
	}
	return nil
}

// Advance transitions a payout's status within a single transaction,
// payout state transitions run in a single
// transaction". The hash binding is refreshed to the post-transition row so
// a later VerifyHash call observes the new status, not the old one.
func (r *PayoutRepository) Advance(ctx context.Context, tenantID int64, id uuid.UUID, next PayoutStatus, txHash string) error {
	return r.client.WithTx(ctx, func(tx *sql.Tx) error {
		p := &PayoutRequest{}
		err := tx.QueryRowContext(ctx,
			`SELECT id, tenant_id, contract_id, value_json, tx_hash, user_sig, admin_sig,
			 blockchain_status, payout_status FROM payout_requests
			 WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id,
		).Scan(&p.ID, &p.TenantID, &p.ContractID, &p.ValueJSON, &p.TxHash, &p.UserSig, &p.AdminSig,
			&p.BlockchainStatus, &p.PayoutStatus)
		if err != nil {
			return fmt.Errorf("lock payout row: %w", err)
		}

		p.PayoutStatus = next
		if txHash != "" {
			p.TxHash = sql.NullString{String: txHash, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE payout_requests SET payout_status = $1, tx_hash = $2, updated_at = now()
			 WHERE id = $3`, p.PayoutStatus, p.TxHash, p.ID); err != nil {
			return fmt.Errorf("update payout: %w", err)
		}

		newHash := HashPayout(p)
		if _, err := tx.ExecContext(ctx,
			`UPDATE payout_hashes SET hash = $1, signed_at = now() WHERE payout_id = $2`,
			newHash, p.ID); err != nil {
			return fmt.Errorf("update payout hash: %w", err)
		}
		return nil
	})
}
