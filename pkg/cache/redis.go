package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shuankun/shuankun-api/pkg/config"
)

const keySeparator = ":"

// NewRedis returns a configured Redis client after verifying connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Key joins namespace parts into a cache key. Empty parts become "_" so
// positional wildcards keep working.
func Key(namespace string, parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, namespace)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "_"
		}
		segments = append(segments, strings.ReplaceAll(p, keySeparator, "_"))
	}
	return strings.Join(segments, keySeparator)
}

// Pattern builds a SCAN pattern that matches every key under the given prefix parts.
func Pattern(namespace string, parts ...string) string {
	return Key(namespace, parts...) + keySeparator + "*"
}
