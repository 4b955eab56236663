// Package bootstrap 由各进程入口调用，把存储、仓储和工作区组装成 service.Deps。
package bootstrap

import (
	"time"

	"gorm.io/gorm"

	"TripMate/config"
	"TripMate/internal/cache"
	"TripMate/internal/model"
	"TripMate/internal/realtime"
	"TripMate/internal/repository"
	"TripMate/internal/routemap"
	"TripMate/internal/service"
	"TripMate/internal/store"
	"TripMate/pkg/geocode"
	"TripMate/pkg/objectstore"
	"TripMate/pkg/snowflake"
)

// registrationOrder 登记按写入先后展示
func registrationOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// NewDeps 以 db 为底构建服务依赖；bus 决定变更是只在本进程内传播还是经 RabbitMQ 广播
func NewDeps(db *gorm.DB, bus realtime.Bus, cfg config.Config) service.Deps {
	trips := repository.NewTripRepository(db)
	entries := repository.NewRecords[model.ItineraryEntry](db).WithOrder(repository.OrderByItinerary)
	tickets := repository.NewRecords[model.TicketType](db).WithPreload("Registrations", registrationOrder)
	preparations := repository.NewRecords[model.Preparation](db)
	expenses := repository.NewRecords[model.Expense](db)
	infos := repository.NewRecords[model.SharedInfo](db)
	notices := repository.NewRecords[model.Notice](db)

	registry := store.NewRegistry(store.Config{
		Repos: store.Repositories{
			Trips:        trips,
			Itinerary:    entries,
			Tickets:      tickets,
			Preparations: preparations,
			Expenses:     expenses,
			Infos:        infos,
			Notices:      notices,
		},
		Bus:      bus,
		NewID:    snowflake.NextID,
		Debounce: time.Duration(cfg.RefreshDebounceMs) * time.Millisecond,
	}, idleTimeout(cfg))

	return service.Deps{
		Registry:      registry,
		Trips:         trips,
		Itinerary:     entries,
		Tickets:       tickets,
		Registrations: repository.NewRegistrationRepository(db),
		Preparations:  preparations,
		Checks:        repository.NewCheckRepository(db),
		Expenses:      expenses,
		Infos:         infos,
		Notices:       notices,
		Geocoder:      geocode.GetClient(),
		PlaceCache:    cache.PlaceSearchCache,
		Breaker:       cache.GeocodeBreaker,
		Objects:       objectstore.GetClient(),
		NewID:         snowflake.NextID,
		MapSize:       routemap.Size{Width: cfg.MapViewWidth, Height: cfg.MapViewHeight},
		ImageMaxBytes: cfg.ImageMaxSizeBytes,
	}
}

func idleTimeout(cfg config.Config) time.Duration {
	if cfg.WorkspaceIdleMins <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(cfg.WorkspaceIdleMins) * time.Minute
}
