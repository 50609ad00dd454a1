// Package redis shares session memory between resolver instances through Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the per-kind keys.
const DefaultKeyPrefix = "advisory:last:"

// Store implements domain.SessionMemory with one string key per kind.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects to the Redis server at addr.
func NewStore(addr, prefix string) *Store {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	return NewStoreWithClient(client, prefix)
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(kind domain.Kind) string {
	return s.prefix + string(kind)
}

// Recall returns the last remembered query for kind.
func (s *Store) Recall(ctx context.Context, kind domain.Kind) (string, bool, error) {
	q, err := s.client.Get(ctx, s.key(kind)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", s.key(kind), err)
	}
	return q, true, nil
}

// Remember overwrites the last query for kind with a single SET. Keys never expire.
func (s *Store) Remember(ctx context.Context, kind domain.Kind, query string) error {
	if err := s.client.Set(ctx, s.key(kind), query, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(kind), err)
	}
	return nil
}

// Ping checks the connection to Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
