package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"chain-gateway/internal/logging"
)

// RemoteTier is an optional shared cache consulted after a local miss.
// Implementations store opaque JSON payloads. Get reports the time the
// payload has left to live; a payload at or past its expiry is a miss.
type RemoteTier interface {
	Get(ctx context.Context, cat Category, key string) (payload []byte, remaining time.Duration, ok bool, err error)
	Set(ctx context.Context, cat Category, key string, payload []byte, ttl time.Duration) error
}

// Loader layers fetch-on-miss, single-flight coalescing and an optional
// remote tier over a Cache.
type Loader struct {
	cache  *Cache
	remote RemoteTier
	group  singleflight.Group
	logger *zap.SugaredLogger
}

// NewLoader creates a Loader. remote and logger may be nil.
func NewLoader(c *Cache, remote RemoteTier, logger *zap.SugaredLogger) *Loader {
	return &Loader{
		cache:  c,
		remote: remote,
		logger: logging.OrNop(logger).Named("cache"),
	}
}

// Cache returns the underlying local cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Fetch returns the cached *T under (cat, key) or calls fetch once for all
// concurrent callers of the same key. A nil result or an error is not cached.
// The shared fetch runs detached from the caller's cancellation so one caller
// giving up does not fail the others; fetch must bound its own duration.
func Fetch[T any](ctx context.Context, l *Loader, cat Category, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	if v, ok := l.cache.Get(cat, key); ok {
		if typed, ok := v.(*T); ok {
			return typed, nil
		}
	}

	flightKey := string(cat) + "#" + key
	v, err, _ := l.group.Do(flightKey, func() (any, error) {
		detached := context.WithoutCancel(ctx)

		// A remote copy keeps the expiry it was written with.
		if typed, remaining := fetchRemote[T](detached, l, cat, key); typed != nil {
			l.cache.Set(cat, key, typed, remaining)
			return typed, nil
		}

		result, err := fetch(detached)
		if err != nil || result == nil {
			return result, err
		}
		l.cache.Set(cat, key, result, 0)
		l.storeRemote(detached, cat, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	typed, _ := v.(*T)
	return typed, nil
}

// fetchRemote returns the remote copy and its remaining lifetime, capped at
// the category TTL. Expired or undecodable payloads are misses.
func fetchRemote[T any](ctx context.Context, l *Loader, cat Category, key string) (*T, time.Duration) {
	if l.remote == nil {
		return nil, 0
	}
	payload, remaining, ok, err := l.remote.Get(ctx, cat, key)
	if err != nil {
		l.logger.Warnw("remote cache get failed", "category", cat, "key", key, "error", err)
		return nil, 0
	}
	if !ok || remaining <= 0 {
		return nil, 0
	}
	if ttl := l.cache.TTL(cat); remaining > ttl {
		remaining = ttl
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		l.logger.Warnw("remote cache payload undecodable", "category", cat, "key", key, "error", err)
		return nil, 0
	}
	return &out, remaining
}

func (l *Loader) storeRemote(ctx context.Context, cat Category, key string, value any) {
	if l.remote == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		l.logger.Warnw("remote cache encode failed", "category", cat, "key", key, "error", err)
		return
	}
	if err := l.remote.Set(ctx, cat, key, payload, l.cache.TTL(cat)); err != nil {
		l.logger.Warnw("remote cache set failed", "category", cat, "key", key, "error", err)
	}
}
