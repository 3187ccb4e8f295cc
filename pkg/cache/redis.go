package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "leavesync:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string, v any) error {
	b, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return errors.Wrapf(err, "redis get %s", key)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	if err := s.client.Set(ctx, keyPrefix+key, b, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
