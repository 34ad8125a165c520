package cache

import (
	"context"
	"fmt"
	"time"

	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// redisStore Redis 後端的緩存儲存
type redisStore struct {
	client *redis.Client
}

// newRedisStore 連線並驗證 Redis
func newRedisStore(cfg *config.Config) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{client: client}, nil
}

// get 獲取緩存；未命中返回 CACHE_DISABLED 類錯誤
func (s *redisStore) get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", common.ErrCacheDisabled
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return data, nil
}

// set 設置緩存
func (s *redisStore) set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// close 關閉連線
func (s *redisStore) close() error {
	return s.client.Close()
}
