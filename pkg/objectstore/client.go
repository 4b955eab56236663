package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/pkg/errors"
	"TripMate/pkg/logger"
)

// Client 对象存储接口
type Client interface {
	// Put 上传对象并返回可访问的 URL
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

var (
	storeClient Client
	storeOnce   sync.Once
	storeErr    error
)

// Init 初始化对象存储客户端；s3 未配置 bucket 时降级为不可用客户端
func Init(ctx context.Context) error {
	storeOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.StorageProvider {
		case "s3":
			if cfg.S3Bucket == "" {
				storeClient = unavailable{}
				logger.Logger.Warn("Object storage is unavailable, S3_ASSETS_BUCKET is empty")
				return
			}
			storeClient, storeErr = NewS3Client(ctx, S3Options{
				Bucket:         cfg.S3Bucket,
				Region:         cfg.S3Region,
				PresignMinutes: cfg.S3PresignMinutes,
			})
		case "mock":
			storeClient = NewMockClient()
		default:
			storeErr = fmt.Errorf("unsupported storage provider: %s", cfg.StorageProvider)
		}

		if storeErr != nil {
			logger.Logger.Error("Failed to initialize object storage", zap.Error(storeErr))
			return
		}

		logger.Logger.Info("Object storage initialized successfully",
			zap.String("provider", cfg.StorageProvider),
		)
	})

	return storeErr
}

func GetClient() Client {
	if storeClient == nil {
		panic("object storage not initialized, call objectstore.Init() first")
	}
	return storeClient
}

// EntryImageKey 条目图片的对象键：trips/<trip>/entries/<entry>/<uuid><ext>
func EntryImageKey(tripID, entryID int64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(
		"trips", strconv.FormatInt(tripID, 10),
		"entries", strconv.FormatInt(entryID, 10),
		uuid.NewString()+ext,
	)
}

type unavailable struct{}

func (unavailable) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	return "", errors.StorageUnavailable
}
