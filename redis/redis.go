package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Password  string `json:"password,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

type RedisSentinelConfig struct {
	SentinelHost     string `json:"sentinel_host"`
	SentinelPort     int    `json:"sentinel_port"`
	Password         string `json:"password,omitempty"`
	MasterName       string `json:"master_name"`
	SentinelUsername string `json:"sentinel_username,omitempty"`
	Namespace        string `json:"namespace,omitempty"`
}

const connectTimeout = 5 * time.Second

// NewRedisClient connects to a standalone Redis instance and verifies the
// connection with a ping before returning the client.
func NewRedisClient(config *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "host", config.Host, "port", config.Port)
	return client, nil
}

// NewRedisSentinelClient connects to a Redis master through Sentinel and
// verifies the connection with a ping before returning the client.
func NewRedisSentinelClient(config *RedisSentinelConfig) (*redis.Client, error) {
	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       config.MasterName,
		SentinelAddrs:    []string{fmt.Sprintf("%s:%d", config.SentinelHost, config.SentinelPort)},
		SentinelUsername: config.SentinelUsername,
		Password:         config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis through Sentinel: %w", err)
	}

	slog.Info("Connected to Redis through Sentinel", "master", config.MasterName)
	return client, nil
}
