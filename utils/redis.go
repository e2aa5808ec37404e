package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danuartha/wedding-management-backend/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client used for change fan-out.
func InitRedis(cfg *config.Config) error {
	redisClient = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     50,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connect failed: %w", err)
	}

	log.Println("Connected to Redis")
	return nil
}

// GetRedisClient returns the shared client. Panics if InitRedis was not called.
func GetRedisClient() *redis.Client {
	if redisClient == nil {
		panic("redis client not initialized")
	}
	return redisClient
}

// RedisHealthCheck pings the shared client with a short deadline.
func RedisHealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
