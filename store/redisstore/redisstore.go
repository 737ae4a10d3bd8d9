// Package redisstore implements store.Store on Redis.
//
// SETNX carries the create-if-absent guarantee and DEL's removed-key count
// distinguishes delete from no-op, so both conditional operations are single
// server-side commands.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-user-service/store"
)

// Client is the subset of the Redis API the store uses. *redis.Client
// satisfies it; tests supply a fake.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ store.Store = (*RedisStore)(nil)
var _ Client = (*redis.Client)(nil)

type RedisStore struct {
	client    Client
	keyPrefix string
}

type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces all keys, e.g. when the Redis instance is shared.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.keyPrefix = prefix
	}
}

func New(client Client, options ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}

	rs := &RedisStore{client: client}
	for _, opt := range options {
		opt(rs)
	}
	return rs, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := rs.client.Get(ctx, rs.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "[RedisStore.Get] GET")
	}
	return value, nil
}

func (rs *RedisStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	// No TTL: users live until deleted.
	created, err := rs.client.SetNX(ctx, rs.keyPrefix+key, value, 0).Result()
	if err != nil {
		return errors.Wrap(err, "[RedisStore.PutIfAbsent] SETNX")
	}
	if !created {
		return store.ErrAlreadyExists
	}
	return nil
}

func (rs *RedisStore) DeleteIfExists(ctx context.Context, key string) error {
	removed, err := rs.client.Del(ctx, rs.keyPrefix+key).Result()
	if err != nil {
		return errors.Wrap(err, "[RedisStore.DeleteIfExists] DEL")
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}
