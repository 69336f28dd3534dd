package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisRecordPrefix = "records:"

// RedisStore keeps each record as a JSON string under "records:{path}".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: redisRecordPrefix}
}

func (s *RedisStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+path).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.FromTransport(err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", path, err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", path, err)
	}
	if err := s.client.Set(ctx, s.prefix+path, data, 0).Err(); err != nil {
		return apperrors.FromTransport(err)
	}
	return nil
}
