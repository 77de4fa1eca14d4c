package systemdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrMintRewardNotFound is returned when no MintReward row matches a lookup.
var ErrMintRewardNotFound = errors.New("systemdb: mint reward row not found")

// MintRepository handles mint_project, nft and mint_reward tables backing
// the collection-mint handler.
type MintRepository struct {
	client *Client
}

// NewMintRepository returns a repository bound to client.
func NewMintRepository(client *Client) *MintRepository {
	return &MintRepository{client: client}
}

// GetProject fetches a mint project by id.
func (r *MintRepository) GetProject(ctx context.Context, tenantID, projectID int64) (*MintProject, error) {
	query := `SELECT id, tenant_id, contract_id, storage_location, max_per_address,
		nft_table_name, linked_whitelist, created_at
		FROM mint_project WHERE tenant_id = $1 AND id = $2`
	p := &MintProject{}
	err := r.client.db.QueryRowContext(ctx, query, tenantID, projectID).Scan(
		&p.ID, &p.TenantID, &p.ContractID, &p.StorageLocation, &p.MaxPerAddress,
		&p.NftTableName, &p.LinkedWhitelist, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("systemdb: mint project %d: %w", projectID, ErrMintRewardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get mint project: %w", err)
	}
	return p, nil
}

// GetReward fetches a claimant's pre-aggregated mint-reward row, which the
// collection-mint handler verifies is unprocessed and unminted before
// spending it.
func (r *MintRepository) GetReward(ctx context.Context, projectID int64, paymentAddr string) (*MintReward, error) {
	query := `SELECT id, project_id, payment_addr, nft_ids, value_bytes, processed, minted
		FROM mint_reward WHERE project_id = $1 AND payment_addr = $2`
	var nftIDs pq.Int64Array
	var valueBytes pq.ByteaArray
	m := &MintReward{}
	err := r.client.db.QueryRowContext(ctx, query, projectID, paymentAddr).Scan(
		&m.ID, &m.ProjectID, &m.PaymentAddr, &nftIDs, &valueBytes, &m.Processed, &m.Minted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMintRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("systemdb: get mint reward: %w", err)
	}
	m.NftIDs = []int64(nftIDs)
	m.ValueBytes = [][]byte(valueBytes)
	return m, nil
}

// MarkProcessed flips a mint-reward row's processed flag at build time and
// minted at finalize time, guarding against double-spend of the same
// claimant row.
func (r *MintRepository) MarkProcessed(ctx context.Context, id int64, processed, minted bool) error {
	_, err := r.client.db.ExecContext(ctx,
		`UPDATE mint_reward SET processed = $1, minted = $2 WHERE id = $3`, processed, minted, id)
	if err != nil {
		return fmt.Errorf("systemdb: mark mint reward processed: %w", err)
	}
	return nil
}

// GetNfts fetches the NFT rows for the given ids; the query has no ORDER BY,
// so the order of the returned rows is not defined.
func (r *MintRepository) GetNfts(ctx context.Context, ids []int64) ([]Nft, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, project_id, asset_name, fingerprint, metadata_json, minted, tx_hash
		FROM nft WHERE id = ANY($1)`
	rows, err := r.client.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("systemdb: get nfts: %w", err)
	}
	defer rows.Close()

	var out []Nft
	for rows.Next() {
		var n Nft
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.AssetName, &n.Fingerprint, &n.MetadataJSON, &n.Minted, &n.TxHash); err != nil {
			return nil, fmt.Errorf("systemdb: scan nft: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
