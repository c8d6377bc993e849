package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kiosk/globals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the same contract against every backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, globals.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, globals.TokenKey, "tok"))
	require.NoError(t, s.Set(ctx, globals.RoleKey, "seller"))
	require.NoError(t, s.Set(ctx, globals.SellerIDKey, "s-1"))

	v, ok, err := s.Get(ctx, globals.RoleKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "seller", v)

	require.NoError(t, s.Delete(ctx, globals.SessionKeys...))
	for _, k := range globals.SessionKeys {
		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}

	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, globals.SessionKeys...))
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exercise(t, s)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, globals.TokenKey, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := second.Get(ctx, globals.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	_, _, err = s.Get(context.Background(), globals.TokenKey)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("KIOSK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KIOSK_TEST_REDIS_ADDR not set")
	}
	s, err := DialRedis(context.Background(), addr, 0, "test-"+t.Name())
	require.NoError(t, err)
	defer s.Close()
	exercise(t, s)
}
