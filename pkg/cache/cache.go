// Package cache stores fetched HR data between runs, either as JSON files in
// a directory or as JSON blobs in Redis.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var ErrMiss = errors.New("cache miss")

type Store interface {
	// Load decodes the value stored under key into v. It returns ErrMiss
	// when nothing is stored.
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) error
	Close() error
}

// Open picks a backend from target: a redis:// or rediss:// URL selects
// Redis, anything else is taken as a directory path.
func Open(target string, ttl time.Duration) (Store, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("cache target is empty")
	}
	if strings.HasPrefix(target, "redis://") || strings.HasPrefix(target, "rediss://") {
		return NewRedisStore(target, ttl)
	}
	return NewFileStore(target), nil
}
