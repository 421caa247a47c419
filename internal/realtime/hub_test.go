package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"usercache-api/internal/cache"
)

type fakeClient struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (f *fakeClient) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message)
	return true
}

func (f *fakeClient) Close() {}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestHub_NotifyReachesOnlyStoreSubscribers(t *testing.T) {
	h := NewHub(nil)
	app := &fakeClient{}
	other := &fakeClient{}
	h.Register("app", app)
	h.Register("other", other)

	h.Notify(cache.Event{Store: "app", Op: cache.OpSet, Keys: []string{"k"}, At: time.Unix(10, 0)})

	require.Equal(t, 1, app.count())
	require.Equal(t, 0, other.count())

	var ev cache.Event
	require.NoError(t, json.Unmarshal(app.msgs[0], &ev))
	require.Equal(t, cache.OpSet, ev.Op)
	require.Equal(t, []string{"k"}, ev.Keys)
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub(nil)
	c := &fakeClient{}
	h.Register("app", c)
	require.Equal(t, 1, h.Subscribers("app"))

	h.Unregister("app", c)
	require.Equal(t, 0, h.Subscribers("app"))

	h.Notify(cache.Event{Store: "app", Op: cache.OpPurge})
	require.Equal(t, 0, c.count())
}

func TestHub_WiredAsCacheNotifier(t *testing.T) {
	h := NewHub(nil)
	sub := &fakeClient{}
	h.Register("app", sub)

	c, err := cache.New(cache.Config{Name: "app", Enabled: true, Notifier: h})
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Set("a", 1))
	require.True(t, c.Delete("a"))
	require.Equal(t, 2, sub.count())
}
