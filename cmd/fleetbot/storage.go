package main

import (
	"context"
	"fmt"

	"github.com/zulandar/fleetbot/internal/config"
	"github.com/zulandar/fleetbot/internal/db"
	"github.com/zulandar/fleetbot/internal/kv"
	"github.com/zulandar/fleetbot/internal/store"
)

// openKV builds the configured key-value backend. The returned closer is
// never nil.
func openKV(ctx context.Context, cfg *config.Config) (kv.Store, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.Storage.RedisAddr != "":
		rs, err := kv.NewRedisStore(ctx, kv.RedisStoreOpts{Addr: cfg.Storage.RedisAddr})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil

	case cfg.Storage.MySQLDSN != "":
		gormDB, err := db.OpenMySQL(cfg.Storage.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrate(gormDB); err != nil {
			return nil, nil, err
		}
		gs, err := kv.NewGormStore(gormDB)
		if err != nil {
			return nil, nil, err
		}
		return gs, noop, nil

	default:
		gormDB, err := db.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrate(gormDB); err != nil {
			return nil, nil, err
		}
		gs, err := kv.NewGormStore(gormDB)
		if err != nil {
			return nil, nil, err
		}
		return gs, noop, nil
	}
}

// storeFromConfig loads the config and opens the report store over it.
func storeFromConfig(ctx context.Context, configPath string) (*config.Config, *store.Store, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	kvs, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.New(kvs)
	if err != nil {
		closeKV()
		return nil, nil, nil, err
	}
	return cfg, st, closeKV, nil
}
