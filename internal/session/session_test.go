package session

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"usercache-api/internal/cache"
)

func newTestStore(t *testing.T, timeout time.Duration) (*Store, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	s, err := New(Config{Enabled: true, Timeout: timeout, Clock: mock})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, mock
}

func TestNew_Unavailable(t *testing.T) {
	_, err := New(Config{Enabled: false, Timeout: time.Minute})
	require.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestNew_InvalidTimeout(t *testing.T) {
	_, err := New(Config{Enabled: true, Timeout: -time.Second})
	require.ErrorIs(t, err, ErrInvalidTimeout)
}

func TestStore_WriteReadExists(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	sid := s.NewID()

	require.False(t, s.Exists(sid))
	require.True(t, s.Write(sid, []byte("user-1")))
	require.True(t, s.Exists(sid))
	require.False(t, s.Exists("someone-else"))
	require.False(t, s.Exists(""))

	data, ok := s.Read(sid)
	require.True(t, ok)
	require.Equal(t, "user-1", string(data))
	require.Equal(t, 1, s.Count())
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	sid := s.NewID()
	payload := []byte("abc")
	require.True(t, s.Write(sid, payload))
	payload[0] = 'x'

	data, ok := s.Read(sid)
	require.True(t, ok)
	require.Equal(t, "abc", string(data))
	data[0] = 'y'

	again, _ := s.Read(sid)
	require.Equal(t, "abc", string(again))
}

func TestStore_Expiry(t *testing.T) {
	s, mock := newTestStore(t, time.Minute)
	sid := s.NewID()
	require.True(t, s.Write(sid, []byte("x")))

	mock.Add(30 * time.Second)
	require.True(t, s.Write(sid, []byte("y"))) // refresh
	mock.Add(45 * time.Second)
	require.True(t, s.Exists(sid))

	mock.Add(time.Minute)
	require.False(t, s.Exists(sid))
	_, ok := s.Read(sid)
	require.False(t, ok)
	require.Equal(t, 1, s.GC())
}

func TestStore_Destroy(t *testing.T) {
	s, _ := newTestStore(t, 0)
	sid := s.NewID()
	require.True(t, s.Write(sid, []byte("x")))

	require.True(t, s.Destroy(sid))
	require.False(t, s.Destroy(sid))
	require.False(t, s.Exists(sid))
}

func TestStore_ClosedReportsNothing(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	sid := s.NewID()
	require.True(t, s.Write(sid, []byte("x")))

	s.Close()
	require.False(t, s.Exists(sid))
	require.False(t, s.Write(sid, []byte("x")))
}
