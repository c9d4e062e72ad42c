package kv

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	getEntryQuery = `SELECT value FROM kv_entries WHERE key = $1`
	setEntryQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps the documents in the `kv_entries` table.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.GetContext(ctx, &value, getEntryQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "selecting %q", key)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, setEntryQuery, key, string(value)); err != nil {
		return errors.Wrapf(err, "upserting %q", key)
	}
	return nil
}

func (s *PostgresStore) DB() *sqlx.DB { return s.db }

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
