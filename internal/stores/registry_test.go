package stores

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usercache-api/internal/cache"
	"usercache-api/internal/database"
	"usercache-api/internal/models"
	"usercache-api/internal/testutil"
)

func newTestRegistry(t *testing.T, enabled bool) (*Registry, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	r := NewRegistry(Options{Enabled: enabled, Clock: mock, Logger: zap.NewNop()})
	t.Cleanup(r.Close)
	return r, mock
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r, mock := newTestRegistry(t, true)

	c, err := r.Register(models.StoreInstance{Name: "app", DefaultTTLSeconds: 60, Enabled: true})
	require.NoError(t, err)
	require.True(t, c.IsInitialised())
	require.Equal(t, time.Minute, c.DefaultTTL())

	got, ok := r.Get("app")
	require.True(t, ok)
	require.Same(t, c, got)

	require.True(t, got.Set("k", "v"))
	mock.Add(2 * time.Minute)
	require.False(t, got.Has("k"))
}

func TestRegistry_Duplicate(t *testing.T) {
	r, _ := newTestRegistry(t, true)
	_, err := r.Register(models.StoreInstance{Name: "app", Enabled: true})
	require.NoError(t, err)

	_, err = r.Register(models.StoreInstance{Name: "app", Enabled: true})
	require.ErrorIs(t, err, ErrDuplicateStore)
}

func TestRegistry_DisabledStore(t *testing.T) {
	r, _ := newTestRegistry(t, true)
	_, err := r.Register(models.StoreInstance{Name: "off", Enabled: false})
	require.ErrorIs(t, err, cache.ErrUnavailable)

	r2, _ := newTestRegistry(t, false)
	_, err = r2.Register(models.StoreInstance{Name: "on", Enabled: true})
	require.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestRegistry_RemoveClosesStore(t *testing.T) {
	r, _ := newTestRegistry(t, true)
	c, err := r.Register(models.StoreInstance{Name: "app", Enabled: true})
	require.NoError(t, err)

	require.NoError(t, r.Remove("app"))
	require.False(t, c.IsReady())
	_, ok := r.Get("app")
	require.False(t, ok)
	require.ErrorIs(t, r.Remove("app"), ErrUnknownStore)
}

func TestRegistry_LoadAll(t *testing.T) {
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	for _, inst := range []models.StoreInstance{
		{Name: "b", Enabled: true},
		{Name: "a", Enabled: true, MaxEntries: 10},
		{Name: "disabled", Enabled: false},
	} {
		_, err := database.EnsureStoreInstance(db, inst)
		require.NoError(t, err)
	}

	r, _ := newTestRegistry(t, true)
	n, err := r.LoadAll(db)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_JanitorSweeps(t *testing.T) {
	mock := clock.NewMock()
	r := NewRegistry(Options{Enabled: true, Clock: mock, SweepInterval: time.Minute})
	t.Cleanup(r.Close)

	c, err := r.Register(models.StoreInstance{Name: "app", DefaultTTLSeconds: 1, Enabled: true})
	require.NoError(t, err)
	require.True(t, c.Set("k", "v"))

	mock.Add(time.Minute)
	require.Eventually(t, func() bool {
		return c.Stats().Expired == 1
	}, time.Second, 10*time.Millisecond)
}
