package storage

import (
	"TripMate/storage/database"
	"TripMate/storage/mq"
	"TripMate/storage/redis"
)

// Init 统一初始化存储层：数据库、缓存、消息队列
func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
