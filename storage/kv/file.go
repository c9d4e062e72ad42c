package kv

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps one `<key>.json` file per key under a directory.
// Writes go to a temp file that is renamed over the old one.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating storage dir %q", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %q", key)
	}
	return data, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrapf(err, "writing %q", key)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Wrapf(err, "syncing %q", key)
	}
	if err = tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "writing %q", key)
	}
	if err = os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		return errors.Wrapf(err, "replacing %q", key)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
