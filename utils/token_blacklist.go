package utils

import (
	"context"
	"sync"
	"time"
)

const revokedKeyPrefix = "session:revoked:"

// revokedSessions is the fallback used when Redis is absent or failing.
type revokedSessions struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

var localRevoked = &revokedSessions{entries: map[string]time.Time{}}

func (r *revokedSessions) add(token string, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for tok, exp := range r.entries {
		if now.After(exp) {
			delete(r.entries, tok)
		}
	}
	r.entries[token] = until
}

func (r *revokedSessions) has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.entries[token]
	if ok && time.Now().After(until) {
		delete(r.entries, token)
		return false
	}
	return ok
}

// BlacklistToken revokes a session token until expiresAt. Tokens already past
// expiry are ignored.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		err := withRedis(rc, func(ctx context.Context) error {
			return rc.Set(ctx, revokedKeyPrefix+token, 1, ttl).Err()
		})
		if err == nil {
			return
		}
		Sugar.Warnw("session revoke fell back to memory", "err", err)
	}
	localRevoked.add(token, expiresAt)
}

// IsTokenBlacklisted reports whether token was revoked by a logout.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		var n int64
		err := withRedis(rc, func(ctx context.Context) (err error) {
			n, err = rc.Exists(ctx, revokedKeyPrefix+token).Result()
			return err
		})
		if err == nil && n > 0 {
			return true
		}
	}
	return localRevoked.has(token)
}
