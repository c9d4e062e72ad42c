package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	val, err := store.Get(ctx, "btf_batches")
	require.NoError(t, err)
	assert.Nil(t, val, "absent key")

	require.NoError(t, store.Set(ctx, "btf_batches", []byte(`[{"id":"batch_1"}]`)))
	val, err = store.Get(ctx, "btf_batches")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"batch_1"}]`, string(val))

	require.NoError(t, store.Set(ctx, "btf_batches", []byte(`[]`)))
	val, err = store.Get(ctx, "btf_batches")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(val))

	tests := []string{"", "../etc", `a\b`, "a/b"}
	for _, key := range tests {
		t.Run("invalid key "+key, func(t *testing.T) {
			assert.Error(t, store.Set(ctx, key, []byte(`[]`)))
		})
	}
	assert.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_FailWrites(t *testing.T) {
	store := NewMemoryStore()
	store.FailWrites = errors.New("disk full")
	assert.EqualError(t, store.Set(context.Background(), "btf_batches", []byte(`[]`)), "disk full")
}

func TestMemoryStore_copies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	in := []byte(`[1]`)
	require.NoError(t, store.Set(ctx, "k", in))
	in[1] = '2'

	out, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(out))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	testStore(t, store)

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"btf_batches.json"}, names, "no temp files left behind")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		conf    core.StorageConfig
		want    Store
		wantErr bool
	}{
		{name: "memory", conf: core.StorageConfig{Backend: core.StorageMemory}, want: &MemoryStore{}},
		{name: "file", conf: core.StorageConfig{Backend: core.StorageFile, Dir: t.TempDir()}, want: &FileStore{}},
		{name: "unknown", conf: core.StorageConfig{Backend: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, &core.Config{Storage: tt.conf})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}
