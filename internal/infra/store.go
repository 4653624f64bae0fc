// README: Picks and opens the configured key-value substrate.
package infra

import (
	"context"
	"fmt"

	"zekken/internal/config"
	"zekken/internal/kv"
)

const redisKeyPrefix = "zekken:"

func OpenStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return kv.NewMemory(), nil
	case config.StoreRedis:
		client := NewRedis(cfg.RedisAddr)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return kv.NewRedis(client, redisKeyPrefix), nil
	case config.StorePostgres:
		pool, err := NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		store, err := kv.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		return store, nil
	case config.StoreBolt, "":
		db, err := NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		store, err := kv.NewBolt(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
