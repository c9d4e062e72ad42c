// Package kv holds the key-value backends the record store persists its collections into.
// A value is an opaque JSON document; every Set replaces the whole document.
package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/storage/database"
)

// Store is a key-value store of JSON documents.
type Store interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open returns the Store selected by conf.Storage.Backend.
func Open(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Storage.Backend {
	case core.StorageMemory:
		return NewMemoryStore(), nil
	case core.StorageFile, "":
		return NewFileStore(conf.Storage.Dir)
	case core.StoragePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewPostgresStore(db), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return errors.Errorf("invalid key %q", key)
	}
	return nil
}
