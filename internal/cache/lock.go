package cache

import (
	"context"
	"time"

	"TripMate/storage/redis"
)

// 基于 SETNX 的分布式锁，用于定时任务单实例运行
const lockPrefix = "lock"

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return redis.Client().SetNX(ctx, redis.Key(lockPrefix, key), 1, ttl).Result()
}

func Unlock(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, redis.Key(lockPrefix, key)).Err()
}
