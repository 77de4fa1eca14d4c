// Package store implements the two short-lived K/V stores L3 describes: the
// process-wide used-UTxO set and the fingerprint-keyed raw-tx store, each
// backed by Redis with an in-memory fallback for tests.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// ErrRawTxNotFound is returned when a fingerprint has no (or an expired)
// raw-tx record.
var ErrRawTxNotFound = errors.New("store: raw tx not found or expired")

// RawTxTTL is the hard deadline for user-side signing.
const RawTxTTL = time.Hour

// Outpoint identifies a UTxO for the used-set, independent of txcodec so
// callers needn't round-trip through CBOR to build a key.
type Outpoint struct {
	TxHash string
	Index  uint32
}

// UsedUTxOSet tracks outpoints currently "in flight": spent by a successful
// finalize but not yet observed as consumed by the chain indexer.
type UsedUTxOSet interface {
	// AddMany atomically marks every given outpoint as used. Concurrent
	// finalize successes that race on overlapping outpoints are safe: this
	// is the only mutation path and it is additive.
	AddMany(ctx context.Context, outpoints []Outpoint) error

	// IsUsed reports whether an outpoint is currently in the used set.
	// Build-time checks are best-effort: a stale read risks a retried build,
	// never a double-spend, because finalize's chain submit is the
	// authoritative rejection.
	IsUsed(ctx context.Context, o Outpoint) (bool, error)

	// Remove clears an outpoint once the chain indexer reports it consumed.
	Remove(ctx context.Context, o Outpoint) error
}

// RawTxStore persists RawTxRecord values keyed by fingerprint with a
// one-hour TTL, and guards per-fingerprint finalize with an exclusive lock.
type RawTxStore interface {
	// Put stores rec under fingerprint with RawTxTTL. A second Put under the
	// same fingerprint with identical bytes is idempotent; differing bytes
	// under the same fingerprint indicate a hash collision or a caller bug
	// and are treated as an overwrite (the fingerprint is the content hash,
	// so in practice this never happens for honest callers).
	Put(ctx context.Context, fingerprint string, rec *txcodec.RawTxRecord) error

	// Get fetches the record for fingerprint, or ErrRawTxNotFound if it has
	// expired or never existed.
	Get(ctx context.Context, fingerprint string) (*txcodec.RawTxRecord, error)

	// Lock acquires the exclusive finalize lock for fingerprint, blocking
	// until it is free or ctx is done. The returned func releases it.
	Lock(ctx context.Context, fingerprint string) (func(), error)

	// FinalizeResult records and retrieves the tx-hash a fingerprint
	// finalized to, so a second concurrent finalize can observe the first's
	// success instead of resubmitting.
	SetFinalizeResult(ctx context.Context, fingerprint string, txHash string) error
	GetFinalizeResult(ctx context.Context, fingerprint string) (string, bool, error)
}
