package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vzwork/locus/internal/types"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewStore creates a store based on the configuration. With REDIS_DSN set it
// connects to Redis; otherwise it falls back to the in-memory store, which is
// only suitable for single-node deployments.
func NewStore(configManager types.ConfigManager) (Store, error) {
	redisDSN := configManager.GetRedisDSN()

	if redisDSN == "" {
		logrus.Info("REDIS_DSN not configured, using memory store")
		return NewMemoryStore(), nil
	}

	opt, err := redis.ParseURL(redisDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_DSN: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logrus.Info("Connected to redis store")
	return NewRedisStore(client), nil
}
