package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	denylistPrefix = "session:revoked:"
	// used when a token carries no expiry claim
	defaultRevocationTTL = 24 * time.Hour
)

// Denylist remembers signed-out tokens until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisDenylist stores token hashes in Redis with a TTL matching the token lifetime.
type RedisDenylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisDenylist builds a denylist on top of the shared Redis client.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := defaultRevocationTTL
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(d.now())
		if ttl <= 0 {
			return nil
		}
	}
	return d.client.Set(ctx, denylistKey(token), 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := d.client.Get(ctx, denylistKey(token)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func denylistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return denylistPrefix + hex.EncodeToString(sum[:])
}
