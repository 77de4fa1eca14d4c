package store

import (
	"context"
	"sync"
	"time"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// MemoryStore is an in-memory UsedUTxOSet + RawTxStore for tests and the
// dispatcher's own unit tests; it does not survive process restart.
type MemoryStore struct {
	mu         sync.Mutex
	used       map[Outpoint]struct{}
	rawTx      map[string]rawTxEntry
	finalize   map[string]string
	locks      map[string]chan struct{}
}

type rawTxEntry struct {
	rec       *txcodec.RawTxRecord
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		used:     make(map[Outpoint]struct{}),
		rawTx:    make(map[string]rawTxEntry),
		finalize: make(map[string]string),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *MemoryStore) AddMany(ctx context.Context, outpoints []Outpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range outpoints {
		s.used[o] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) IsUsed(ctx context.Context, o Outpoint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.used[o]
	return ok, nil
}

func (s *MemoryStore) Remove(ctx context.Context, o Outpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.used, o)
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, fingerprint string, rec *txcodec.RawTxRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawTx[fingerprint] = rawTxEntry{rec: rec, expiresAt: time.Now().Add(RawTxTTL)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, fingerprint string) (*txcodec.RawTxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.rawTx[fingerprint]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrRawTxNotFound
	}
	return entry.rec, nil
}

// Lock returns a release func once the fingerprint's channel-based mutex is
// acquired, blocking on contention until ctx is done.
func (s *MemoryStore) Lock(ctx context.Context, fingerprint string) (func(), error) {
	s.mu.Lock()
	ch, ok := s.locks[fingerprint]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[fingerprint] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) SetFinalizeResult(ctx context.Context, fingerprint string, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalize[fingerprint] = txHash
	return nil
}

func (s *MemoryStore) GetFinalizeResult(ctx context.Context, fingerprint string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txHash, ok := s.finalize[fingerprint]
	return txHash, ok, nil
}
