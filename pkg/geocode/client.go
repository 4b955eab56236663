package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"TripMate/config"
	"TripMate/pkg/errors"
	"TripMate/pkg/logger"
)

// Place 一条地点搜索结果
type Place struct {
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	PlaceID          string  `json:"place_id"`
}

// Client 地点搜索客户端接口
type Client interface {
	// Search 按关键字搜索地点，没有结果时返回空切片
	Search(ctx context.Context, query string) ([]Place, error)
	// Provider 提供方名称，用于日志和指标
	Provider() string
	// Available 是否配置了可用的地图服务
	Available() bool
}

var (
	geoClient Client
	geoOnce   sync.Once
	geoErr    error
)

// Init 初始化地点搜索客户端；google 缺少 key 时降级为不可用客户端，不阻止启动
func Init() error {
	geoOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.GeocodeProvider {
		case "google":
			if cfg.GoogleMapsKey == "" {
				geoClient = unavailable{provider: "google"}
				logger.Logger.Warn("Geocode client is unavailable, GOOGLE_MAPS_API_KEY is empty")
				return
			}
			geoClient, geoErr = NewGoogleClient(cfg.GoogleMapsKey, cfg.GeocodeQPS, cfg.GeocodeLanguage)
		case "mock":
			geoClient = NewMockClient()
		default:
			geoErr = fmt.Errorf("unsupported geocode provider: %s", cfg.GeocodeProvider)
		}

		if geoErr != nil {
			logger.Logger.Error("Failed to initialize geocode client", zap.Error(geoErr))
			return
		}

		logger.Logger.Info("Geocode client initialized successfully",
			zap.String("provider", cfg.GeocodeProvider),
		)
	})

	return geoErr
}

func GetClient() Client {
	if geoClient == nil {
		panic("geocode client not initialized, call geocode.Init() first")
	}
	return geoClient
}

// NormalizeQuery 去掉首尾空白并合并连续空白，作为缓存键
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// unavailable 未配置 key 时使用
type unavailable struct {
	provider string
}

func (u unavailable) Search(ctx context.Context, query string) ([]Place, error) {
	return nil, errors.GeocodeUnavailable
}

func (u unavailable) Provider() string {
	return u.provider
}

func (u unavailable) Available() bool {
	return false
}

// Unavailable 返回一个始终报 GeocodeUnavailable 的客户端
func Unavailable() Client {
	return unavailable{provider: "none"}
}
