package redis

import (
	"context"
	"fmt"
	"time"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "prompt-manager:"

// RedisFactory Redis客户端工厂
type RedisFactory struct {
	client       *redis.Client
	cacheService *CacheService
	logger       logger.Logger
}

// NewRedisFactory 创建Redis连接并验证可用性
func NewRedisFactory(cfg config.RedisConfig, log logger.Logger) (*RedisFactory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address(), err)
	}

	log.WithFields(map[string]interface{}{
		"address": cfg.Address(),
		"db":      cfg.DB,
	}).Info("Redis connected")

	return newRedisFactory(client, log), nil
}

func newRedisFactory(client *redis.Client, log logger.Logger) *RedisFactory {
	return &RedisFactory{
		client:       client,
		cacheService: NewCacheService(client, cacheKeyPrefix),
		logger:       log,
	}
}

// GetCacheService 获取缓存服务
func (f *RedisFactory) GetCacheService() *CacheService {
	return f.cacheService
}

// Close 关闭连接
func (f *RedisFactory) Close() error {
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis: %w", err)
	}
	f.logger.Info("Redis connection closed")
	return nil
}
