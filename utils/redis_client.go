package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/engforum/engforum/config"
)

const redisOpTimeout = 2 * time.Second

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

func redisOptions(cfg config.AppConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	}
}

// GetRedis returns the shared client, or nil when RedisHost is empty.
// Callers fall back to in-process state when it is nil.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		if cfg.RedisHost == "" {
			return
		}
		rc := redis.NewClient(redisOptions(cfg))
		if err := withRedis(rc, func(ctx context.Context) error { return rc.Ping(ctx).Err() }); err != nil {
			Sugar.Warnw("redis unreachable, continuing", "addr", rc.Options().Addr, "err", err)
		}
		redisClient = rc
	})
	return redisClient
}

// withRedis runs fn with a bounded context.
func withRedis(rc *redis.Client, fn func(ctx context.Context) error) error {
	if rc == nil {
		return redis.ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return fn(ctx)
}
