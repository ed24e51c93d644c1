package store

import (
	"context"
	"fmt"

	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/log"
)

// Open builds the backend selected in cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	l := log.ForService("store")

	switch cfg.Backend {
	case config.BackendMemory:
		l.Debugf("using in-memory store")
		return NewMemory(), nil
	case config.BackendBolt, "":
		l.Debugf("using bolt store at %s", cfg.Path)
		return OpenBolt(cfg.Path)
	case config.BackendSQLite:
		l.Debugf("using sqlite store at %s", cfg.Path)
		return OpenSQLite(cfg.Path)
	case config.BackendRedis:
		l.Debugf("using redis store at %s db %d", cfg.Redis.Addr, cfg.Redis.DB)
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
