package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chain-gateway/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value int `json:"value"`
}

// memRemote is an in-memory RemoteTier. Entries expire on clock when one is
// set, otherwise they never do.
type memRemote struct {
	mu      sync.Mutex
	clock   *fakeClock
	data    map[string][]byte
	ttls    map[string]time.Duration
	expires map[string]time.Time
	err     error
}

func newMemRemote() *memRemote {
	return &memRemote{
		data:    map[string][]byte{},
		ttls:    map[string]time.Duration{},
		expires: map[string]time.Time{},
	}
}

func (m *memRemote) now() time.Time {
	if m.clock == nil {
		return time.Now()
	}
	return m.clock.Now()
}

func (m *memRemote) Get(_ context.Context, cat Category, key string) ([]byte, time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, false, m.err
	}
	k := string(cat) + ":" + key
	b, ok := m.data[k]
	if !ok {
		return nil, 0, false, nil
	}
	remaining := m.expires[k].Sub(m.now())
	if remaining <= 0 {
		return nil, 0, false, nil
	}
	return b, remaining, true, nil
}

func (m *memRemote) Set(_ context.Context, cat Category, key string, p []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	k := string(cat) + ":" + key
	m.data[k] = p
	m.ttls[k] = ttl
	m.expires[k] = m.now().Add(ttl)
	return nil
}

func TestFetch_CachesResult(t *testing.T) {
	c, _ := newTestCache()
	l := NewLoader(c, nil, nil)

	var calls atomic.Int32
	fetch := func(context.Context) (*payload, error) {
		calls.Add(1)
		return &payload{Value: 7}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), l, Prices, "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Value)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_NilAndErrorsAreNotCached(t *testing.T) {
	c, _ := newTestCache()
	l := NewLoader(c, nil, nil)

	got, err := Fetch(context.Background(), l, Gas, "k", func(context.Context) (*payload, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Fetch(context.Background(), l, Gas, "k", func(context.Context) (*payload, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len(Gas))
}

func TestFetch_CoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache()
	l := NewLoader(c, nil, nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (*payload, error) {
		calls.Add(1)
		<-release
		return &payload{Value: 1}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Fetch(context.Background(), l, Liquidity, "pair", fetch)
			assert.NoError(t, err)
			assert.Equal(t, 1, got.Value)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RemoteTier(t *testing.T) {
	remote := newMemRemote()

	c1, _ := newTestCache()
	l1 := NewLoader(c1, remote, nil)
	_, err := Fetch(context.Background(), l1, Volume, "k", func(context.Context) (*payload, error) {
		return &payload{Value: 42}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, remote.ttls["volume:k"])

	// A second instance with an empty local cache is served by the remote tier.
	c2, _ := newTestCache()
	l2 := NewLoader(c2, remote, nil)
	got, err := Fetch(context.Background(), l2, Volume, "k", func(context.Context) (*payload, error) {
		t.Fatal("fetch should not be called when remote has the value")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.Value)
	assert.Equal(t, 1, c2.Len(Volume))
}

func TestFetch_RemoteCopyKeepsOriginalExpiry(t *testing.T) {
	c1, clock := newTestCache()
	c2 := New(config.Default().TTL, WithClock(clock.Now))
	remote := newMemRemote()
	remote.clock = clock

	l1 := NewLoader(c1, remote, nil)
	l2 := NewLoader(c2, remote, nil)

	_, err := Fetch(context.Background(), l1, Prices, "k", func(context.Context) (*payload, error) {
		return &payload{Value: 1}, nil
	})
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	got, err := Fetch(context.Background(), l2, Prices, "k", func(context.Context) (*payload, error) {
		t.Fatal("fetch should not be called while the remote copy is live")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Value)

	// The local copy on the second instance lives only as long as the
	// remote entry had left.
	clock.Advance(2 * time.Second)
	_, ok := c2.Get(Prices, "k")
	assert.False(t, ok)

	clock.Advance(57 * time.Second)
	var calls atomic.Int32
	got, err = Fetch(context.Background(), l2, Prices, "k", func(context.Context) (*payload, error) {
		calls.Add(1)
		return &payload{Value: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RemoteFailureFallsBackToFetch(t *testing.T) {
	remote := newMemRemote()
	remote.err = errors.New("redis down")

	c, _ := newTestCache()
	l := NewLoader(c, remote, nil)
	got, err := Fetch(context.Background(), l, Prices, "k", func(context.Context) (*payload, error) {
		return &payload{Value: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Value)
}
