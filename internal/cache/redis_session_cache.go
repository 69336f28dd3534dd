package cache

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/SAP-F-2025/classroom-session/internal/utils"
	"github.com/redis/go-redis/v9"
)

const (
	fieldCourseID = "course_id"
	fieldRole     = "role"
)

// RedisSessionCache stores the session as a hash {course_id, role} under one key with a TTL.
type RedisSessionCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger utils.Logger
}

func NewRedisSessionCache(client redis.UniversalClient, key string, ttl time.Duration, logger utils.Logger) *RedisSessionCache {
	return &RedisSessionCache{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisSessionCache) Publish(ctx context.Context, session models.SessionDetails) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.key, fieldCourseID, session.CourseID, fieldRole, string(session.Role))
		if c.ttl > 0 {
			pipe.Expire(ctx, c.key, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to cache session", "key", c.key, "error", err)
		return apperrors.FromTransport(fmt.Errorf("cache session: %w", err))
	}
	return nil
}

func (c *RedisSessionCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to clear cached session", "key", c.key, "error", err)
		return apperrors.FromTransport(fmt.Errorf("clear session: %w", err))
	}
	return nil
}

func (c *RedisSessionCache) Load(ctx context.Context) (models.SessionDetails, bool, error) {
	values, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return models.SessionDetails{}, false, apperrors.FromTransport(err)
	}
	role, ok := values[fieldRole]
	if !ok {
		return models.SessionDetails{}, false, nil
	}
	return models.SessionDetails{CourseID: values[fieldCourseID], Role: models.UserRole(role)}, true, nil
}
