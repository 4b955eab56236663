package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"TripMate/config"
	redisotel "TripMate/pkg/redis"
)

var (
	client redis.UniversalClient
	once   sync.Once
	err    error
)

func Init() error {
	once.Do(func() {
		cfg := config.Cfg

		c := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 5,
			MaxRetries:   3,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err = c.Ping(ctx).Err(); err != nil {
			return
		}
		if cfg.OTelEnabled {
			redisotel.Instrument(c, cfg.RedisDB)
		}
		client = c
	})

	return err
}

// Client 返回全局客户端，未初始化时 panic
func Client() redis.UniversalClient {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

// SetClient 替换全局客户端，测试中注入 redismock
func SetClient(c redis.UniversalClient) {
	client = c
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}

	return client.Close()
}

// Key 以配置的前缀拼接 key，空段跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = "tm"
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}

	return sb.String()
}
