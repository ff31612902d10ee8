package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock   = "LOCK"
	idemResult = "RES:"
)

// IdemState is what Begin found under an idempotency key.
type IdemState uint8

const (
	// IdemAcquired means the caller holds the key and must Save or Release it.
	IdemAcquired IdemState = iota
	// IdemDone means a previous request finished; its payload is returned.
	IdemDone
	// IdemInProgress means another request holds the key right now.
	IdemInProgress
)

type IdempotencyStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl, lockTTL time.Duration) *IdempotencyStore {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL}
}

// Begin claims key, or reports the stored result or the lock already on it.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (IdemState, string, error) {
	if payload, ok, err := s.GetResult(ctx, key); err != nil || ok {
		return IdemDone, payload, err
	}

	locked, err := s.rdb.SetNX(ctx, key, idemLock, s.lockTTL).Result()
	if err != nil {
		return IdemInProgress, "", err
	}
	if locked {
		return IdemAcquired, "", nil
	}

	// lost the race, the winner may already be done
	if payload, ok, err := s.GetResult(ctx, key); err != nil || ok {
		return IdemDone, payload, err
	}

	return IdemInProgress, "", nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, idemResult+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if payload, ok := strings.CutPrefix(v, idemResult); ok {
		return payload, true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
