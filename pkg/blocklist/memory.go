// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package blocklist

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/signetauth/signet/pkg/errors"
)

// Memory is a bounded in-process Store. Entries carry their own expiry;
// the LRU bound keeps a hostile flood of revocations from growing the
// process without limit.
type Memory struct {
	cache *lru.Cache[string, time.Time]
	nowFn func() time.Time
}

// NewMemory returns a memory store holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "blocklist cache")
	}
	return &Memory{cache: cache, nowFn: time.Now}, nil
}

// Revoke marks jti revoked for ttl.
func (m *Memory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New(errors.ErrCodeTypeMismatch, "ttl must be positive")
	}
	m.cache.Add(jti, m.nowFn().Add(ttl))
	return nil
}

// IsRevoked reports whether jti is currently revoked. Expired entries
// are dropped on sight.
func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	deadline, ok := m.cache.Get(jti)
	if !ok {
		return false, nil
	}
	if m.nowFn().After(deadline) {
		m.cache.Remove(jti)
		return false, nil
	}
	return true, nil
}
