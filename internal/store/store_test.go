package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/novacast/internal/config"
	"go.uber.org/zap/zaptest"
)

func newMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)

	redisStore, err := NewRedisStore(ctx, newMiniRedis(t).Addr(), 0, "novacast:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisStore.Close() })

	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendFile:   fileStore,
		BackendRedis:  redisStore,
	}
}

func TestStores_GetSet(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "theme")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "theme", "light"))
			require.NoError(t, s.Set(ctx, "theme", "dark"))

			v, ok, err := s.Get(ctx, "theme")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "dark", v)
		})
	}
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, FavoritesKey, `["Paris"]`))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, FavoritesKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["Paris"]`, v)
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr := newMiniRedis(t)

	s, err := NewRedisStore(ctx, mr.Addr(), 0, "novacast:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, PlannerModeKey, "true"))

	got, err := mr.Get("novacast:" + PlannerModeKey)
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestRedisStore_RequiresAddress(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "", 0, "")
	require.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	s, err := New(ctx, config.StoreConfig{Backend: BackendMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, config.StoreConfig{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "p.json")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = New(ctx, config.StoreConfig{Backend: BackendRedis, RedisAddr: newMiniRedis(t).Addr()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, config.StoreConfig{Backend: "sqlite"}, logger)
	require.Error(t, err)
}
