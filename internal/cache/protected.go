package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"time"

	ri "github.com/redis/go-redis/v9"

	"TripMate/storage/redis"
)

const (
	// 空值缓存标识
	emptyValueFlag = "__EMPTY__"
	// 空值缓存TTL，较短时间避免长期占用
	emptyValueTTL = 5 * time.Minute
)

// ProtectedCache 带空值保护的 JSON 缓存
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
	// jitter 为正常值 TTL 增加随机量，避免同一批 key 同时过期
	jitter time.Duration
}

func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
	}
}

// WithJitter 设置 TTL 随机量
func (pc *ProtectedCache) WithJitter(d time.Duration) *ProtectedCache {
	pc.jitter = d
	return pc
}

// Set nil 或空切片按空值缓存，使用较短 TTL
func (pc *ProtectedCache) Set(ctx context.Context, key string, value interface{}) error {
	cacheKey := redis.Key(pc.keyPrefix, key)

	if isEmpty(value) {
		return redis.Client().Set(ctx, cacheKey, emptyValueFlag, pc.emptyTTL).Err()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	ttl := pc.ttl
	if pc.jitter > 0 {
		ttl += time.Duration(rand.Int63n(int64(pc.jitter)))
	}
	return redis.Client().Set(ctx, cacheKey, string(data), ttl).Err()
}

// Get 返回是否命中；命中空值时 dest 保持不变
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	cacheKey := redis.Key(pc.keyPrefix, key)

	data, err := redis.Client().Get(ctx, cacheKey).Result()
	if err != nil {
		if err == ri.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache: %w", err)
	}

	if data == emptyValueFlag {
		return true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, redis.Key(pc.keyPrefix, key)).Err()
}

func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr:
		return v.IsNil()
	}
	return false
}

// PlaceSearchCache 地点搜索结果缓存 24 小时
var PlaceSearchCache = NewProtectedCache("places", 24*time.Hour).WithJitter(time.Hour)
