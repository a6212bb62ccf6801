package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"TabSorter/internal/config"
	"TabSorter/internal/ports"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the key/value store selected by cfg. The closer releases any
// connection the store holds.
func Open(ctx context.Context, cfg config.StorageConfig) (ports.KeyValueStore, io.Closer, error) {
	switch cfg.Driver {
	case "", config.StorageFile:
		path := cfg.Path
		if path == "" {
			path = "tabsorter-state.json"
		}
		return NewFileStore(filepath.Clean(path)), nopCloser{}, nil
	case config.StorageMemory:
		return NewMemoryStore(), nopCloser{}, nil
	case config.StorageSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "tabsorter.db"
		}
		store, db, err := OpenSQL(ctx, DialectSQLite, dsn, nil)
		if err != nil {
			return nil, nil, err
		}
		return store, db, nil
	case config.StoragePostgres:
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("storage driver %s needs a dsn", cfg.Driver)
		}
		store, db, err := OpenSQL(ctx, DialectPostgres, cfg.DSN, nil)
		if err != nil {
			return nil, nil, err
		}
		return store, db, nil
	case config.StorageRedis:
		url := cfg.RedisURL
		if url == "" {
			url = cfg.DSN
		}
		if url == "" {
			return nil, nil, fmt.Errorf("storage driver %s needs a url", cfg.Driver)
		}
		store, rdb, err := OpenRedis(ctx, url, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
