package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// BlobStore keeps optimizer state and run logs as opaque values under a
// common key prefix.
type BlobStore struct {
	client *redis.Client
	prefix string
}

func NewBlobStore(client *redis.Client, prefix string) *BlobStore {
	return &BlobStore{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	return val, true, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}

	return nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan Redis keys: %w", err)
	}

	return keys, nil
}
