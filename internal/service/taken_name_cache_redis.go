package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisTakenNameCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisTakenNameCacheStore(client redis.UniversalClient, prefix string) *RedisTakenNameCacheStore {
	if prefix == "" {
		prefix = "taken_name_cache"
	}
	return &RedisTakenNameCacheStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisTakenNameCacheStore) Get(ctx context.Context, namespace, name string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, s.dataKey(namespace, name)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisTakenNameCacheStore) Set(ctx context.Context, namespace, name string, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.dataKey(namespace, name), "1", ttl).Err()
}

// Names are hashed into the key so arbitrary user input never shapes the
// redis keyspace.
func (s *RedisTakenNameCacheStore) dataKey(namespace, name string) string {
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s:%s:%s", s.prefix, normalizeNamespace(namespace), hex.EncodeToString(sum[:16]))
}

func normalizeNamespace(namespace string) string {
	v := strings.TrimSpace(strings.ToLower(namespace))
	if v == "" {
		return "default"
	}
	return strings.ReplaceAll(v, ":", "_")
}
