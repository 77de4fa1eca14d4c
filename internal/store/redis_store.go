package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Salvionied/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

const (
	usedSetKey       = "platform:used-utxos"
	rawTxKeyPrefix   = "platform:rawtx:"
	finalizeKeyPrefix = "platform:finalized:"
	lockKeyPrefix    = "platform:lock:"
)

// RedisStore implements both UsedUTxOSet and RawTxStore against a single
// Redis (or Redis Cluster) client, matching REDIS_DB/REDIS_DB_URL_UTXOMIND/
// REDIS_CLUSTER.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an already-configured redis.UniversalClient (a
// *redis.Client or *redis.ClusterClient depending on REDIS_CLUSTER).
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func outpointMember(o Outpoint) string {
	return o.TxHash + ":" + fmt.Sprint(o.Index)
}

func (s *RedisStore) AddMany(ctx context.Context, outpoints []Outpoint) error {
	if len(outpoints) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(outpoints))
	for _, o := range outpoints {
		members = append(members, outpointMember(o))
	}
	if err := s.client.SAdd(ctx, usedSetKey, members...).Err(); err != nil {
		return fmt.Errorf("store: redis AddMany: %w", err)
	}
	return nil
}

func (s *RedisStore) IsUsed(ctx context.Context, o Outpoint) (bool, error) {
	ok, err := s.client.SIsMember(ctx, usedSetKey, outpointMember(o)).Result()
	if err != nil {
		return false, fmt.Errorf("store: redis IsUsed: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Remove(ctx context.Context, o Outpoint) error {
	if err := s.client.SRem(ctx, usedSetKey, outpointMember(o)).Err(); err != nil {
		return fmt.Errorf("store: redis Remove: %w", err)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, fingerprint string, rec *txcodec.RawTxRecord) error {
	raw, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encoding raw tx record: %w", err)
	}
	key := rawTxKeyPrefix + fingerprint
	if err := s.client.Set(ctx, key, hex.EncodeToString(raw), RawTxTTL).Err(); err != nil {
		return fmt.Errorf("store: redis Put: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*txcodec.RawTxRecord, error) {
	key := rawTxKeyPrefix + fingerprint
	hexVal, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRawTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis Get: %w", err)
	}
	raw, err := hex.DecodeString(hexVal)
	if err != nil {
		return nil, fmt.Errorf("store: corrupt raw tx record for %s: %w", fingerprint, err)
	}
	var rec txcodec.RawTxRecord
	if err := cbor.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("store: decoding raw tx record for %s: %w", fingerprint, err)
	}
	return &rec, nil
}

// Lock acquires a short-lived Redis lock (SET NX with a lease) for the
// fingerprint, polling until it is free or ctx is done, matching the
// "a second concurrent finalize... waits, then returns success once".
func (s *RedisStore) Lock(ctx context.Context, fingerprint string) (func(), error) {
	key := lockKeyPrefix + fingerprint
	const lease = 30 * time.Second
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := s.client.SetNX(ctx, key, "1", lease).Result()
		if err != nil {
			return nil, fmt.Errorf("store: redis Lock: %w", err)
		}
		if ok {
			return func() { s.client.Del(context.Background(), key) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *RedisStore) SetFinalizeResult(ctx context.Context, fingerprint string, txHash string) error {
	key := finalizeKeyPrefix + fingerprint
	if err := s.client.Set(ctx, key, txHash, RawTxTTL).Err(); err != nil {
		return fmt.Errorf("store: redis SetFinalizeResult: %w", err)
	}
	return nil
}

func (s *RedisStore) GetFinalizeResult(ctx context.Context, fingerprint string) (string, bool, error) {
	key := finalizeKeyPrefix + fingerprint
	txHash, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: redis GetFinalizeResult: %w", err)
	}
	return txHash, true, nil
}
