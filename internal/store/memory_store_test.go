package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

func TestMemoryStoreUsedUTxOSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	o := Outpoint{TxHash: "deadbeef", Index: 0}
	used, err := s.IsUsed(ctx, o)
	assert.NoError(t, err)
	assert.False(t, used)

	assert.NoError(t, s.AddMany(ctx, []Outpoint{o}))
	used, err = s.IsUsed(ctx, o)
	assert.NoError(t, err)
	assert.True(t, used)

	assert.NoError(t, s.Remove(ctx, o))
	used, err = s.IsUsed(ctx, o)
	assert.NoError(t, err)
	assert.False(t, used)
}

func TestMemoryStoreRawTxRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := &txcodec.RawTxRecord{
		TxBody:     []byte{0x01, 0x02},
		TxUnsigned: []byte{0x03, 0x04},
		TenantID:   42,
	}

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRawTxNotFound)

	assert.NoError(t, s.Put(ctx, "fp1", rec))
	got, err := s.Get(ctx, "fp1")
	assert.NoError(t, err)
	assert.Equal(t, rec.TxBody, got.TxBody)
	assert.Equal(t, rec.TenantID, got.TenantID)
}

func TestMemoryStoreFinalizeLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	release, err := s.Lock(ctx, "fp1")
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		release2, err := s.Lock(ctx, "fp1")
		assert.NoError(t, err)
		release2()
		close(done)
	}()

	release()
	<-done
}

func TestMemoryStoreFinalizeResult(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.GetFinalizeResult(ctx, "fp1")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.SetFinalizeResult(ctx, "fp1", "txhash123"))
	txHash, ok, err := s.GetFinalizeResult(ctx, "fp1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "txhash123", txHash)
}
