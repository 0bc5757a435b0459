package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options locates the Redis server
type Options struct {
	Addr     string
	Password string
	DB       int
}

const pingTimeout = 3 * time.Second

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error("redis connection failed", zap.String("addr", opts.Addr), zap.Error(err))
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("redis connection successful", zap.String("addr", opts.Addr))
	return rdb, nil
}
