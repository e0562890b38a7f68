// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package blocklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signetauth/signet/pkg/errors"
)

const redisKeyPrefix = "signet:bl:"

// Redis is a Store shared across processes. Entries expire server-side
// via the key TTL, so a revocation outlives any single process.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Revoke marks jti revoked for ttl.
func (r *Redis) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "ttl must be positive")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+jti, "", ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "blocklist revoke")
	}
	return nil
}

// IsRevoked reports whether jti is currently revoked.
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "blocklist lookup")
	}
	return n > 0, nil
}
