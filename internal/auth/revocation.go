package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "empowerfit-revoked-token||"

// RevocationStore keeps logged out tokens in redis until they would expire anyway.
type RevocationStore struct {
	redisClient *redis.Client
}

func NewRevocationStore(redisClient *redis.Client) *RevocationStore {
	return &RevocationStore{
		redisClient: redisClient,
	}
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *RevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already expired, nothing to keep
		return nil
	}
	return s.redisClient.Set(ctx, revokedKey(token), expiresAt.Unix(), ttl).Err()
}

func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := s.redisClient.Get(ctx, revokedKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
