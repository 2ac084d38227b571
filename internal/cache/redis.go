package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier implements RemoteTier on Redis. Values expire with the category TTL.
type RedisTier struct {
	client *redis.Client
	prefix string
}

// NewRedisTier connects to Redis and verifies the connection.
func NewRedisTier(ctx context.Context, addr, password string, db int) (*RedisTier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisTier{client: client, prefix: "gateway"}, nil
}

// Compile-time interface check.
var _ RemoteTier = (*RedisTier)(nil)

func (r *RedisTier) key(cat Category, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, cat, key)
}

// Get returns the payload under key with its remaining TTL, read in one
// round trip. A missing key, or one that expires before PTTL is read, is a
// miss. A key without an expiry reports zero remaining and is a miss too,
// since every value this tier writes carries one.
func (r *RedisTier) Get(ctx context.Context, cat Category, key string) ([]byte, time.Duration, bool, error) {
	k := r.key(cat, key)

	var (
		get  *redis.StringCmd
		pttl *redis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, k)
		pttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}

	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	remaining, err := pttl.Result()
	if err != nil {
		return nil, 0, false, err
	}
	if remaining <= 0 {
		return nil, 0, false, nil
	}
	return data, remaining, true, nil
}

// Set stores payload with ttl.
func (r *RedisTier) Set(ctx context.Context, cat Category, key string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(cat, key), payload, ttl).Err()
}

// Close closes the client.
func (r *RedisTier) Close() error {
	return r.client.Close()
}
