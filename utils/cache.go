package utils

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = time.Minute

// CacheGetBytes returns the raw cached value for key. Without Redis every
// lookup is a miss.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	var b []byte
	err := withRedis(rc, func(ctx context.Context) (err error) {
		b, err = rc.Get(ctx, key).Bytes()
		return err
	})
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		Sugar.Debugw("cache read failed", "key", key, "err", err)
		return nil, false
	}
	return b, true
}

// CacheSetJSON stores v as JSON under key. A zero ttl means defaultCacheTTL.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		Sugar.Warnw("cache encode failed", "key", key, "err", err)
		return
	}
	if err := withRedis(rc, func(ctx context.Context) error { return rc.Set(ctx, key, b, ttl).Err() }); err != nil {
		Sugar.Warnw("cache write failed", "key", key, "err", err)
	}
}

// CacheDelete drops keys.
func CacheDelete(keys ...string) {
	rc := GetRedis()
	if rc == nil || len(keys) == 0 {
		return
	}
	_ = withRedis(rc, func(ctx context.Context) error { return rc.Del(ctx, keys...).Err() })
}
