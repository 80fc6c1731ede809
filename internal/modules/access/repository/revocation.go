package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisRevocationStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisRevocationStore returns a store backed by rdb. A nil client yields
// a store that never revokes anything.
func NewRedisRevocationStore(rdb *redis.Client) RevocationStore {
	return &redisRevocationStore{rdb: rdb, now: time.Now}
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("revoked_token:%s", tokenID)
}

func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if s.rdb == nil || tokenID == "" {
		return nil
	}

	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.rdb.SetNX(ctx, revocationKey(tokenID), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in redis: %w", err)
	}
	return nil
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.rdb == nil || tokenID == "" {
		return false, nil
	}

	n, err := s.rdb.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation in redis: %w", err)
	}
	return n > 0, nil
}
