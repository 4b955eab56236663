// Package service 组合工作区快照、仓储和外部服务，向 handler 暴露行程相关操作。
package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"TripMate/internal/model"
	"TripMate/internal/routemap"
	"TripMate/internal/store"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/geocode"
	"TripMate/pkg/logger"
	"TripMate/pkg/objectstore"
)

// RecordRepository 单表读写
type RecordRepository[T any] interface {
	ListByTrip(ctx context.Context, tripID int64) ([]T, error)
	Get(ctx context.Context, tripID, id int64) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, tripID, id int64, cols map[string]interface{}) (*T, error)
	Delete(ctx context.Context, tripID, id int64) error
}

// TripRepository 行程与参与者
type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error
	Get(ctx context.Context, id int64) (*model.Trip, error)
	AddParticipant(ctx context.Context, p *model.Participant) error
	CountParticipants(ctx context.Context, tripID int64) (int64, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

// RegistrationRepository 票据登记
type RegistrationRepository interface {
	Upsert(ctx context.Context, reg *model.Registration) error
	Delete(ctx context.Context, ticketTypeID int64, key string) error
	DeleteByTicket(ctx context.Context, ticketTypeID int64) error
}

// CheckRepository personal 准备事项的个人勾选
type CheckRepository interface {
	Upsert(ctx context.Context, check *model.PreparationCheck) error
	CheckedBy(ctx context.Context, participantID int64, preparationIDs []int64) (map[int64]bool, error)
}

// PlaceCache 地点搜索结果缓存
type PlaceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// Breaker 熔断保护
type Breaker interface {
	Call(ctx context.Context, operation func() error) error
}

// Deps 服务层依赖，由 cmd 在启动时组装
type Deps struct {
	Registry      *store.Registry
	Trips         TripRepository
	Itinerary     store.EntryRepository
	Tickets       RecordRepository[model.TicketType]
	Registrations RegistrationRepository
	Preparations  RecordRepository[model.Preparation]
	Checks        CheckRepository
	Expenses      RecordRepository[model.Expense]
	Infos         RecordRepository[model.SharedInfo]
	Notices       RecordRepository[model.Notice]

	Geocoder   geocode.Client
	PlaceCache PlaceCache
	Breaker    Breaker
	Objects    objectstore.Client

	NewID         func() (int64, error)
	MapSize       routemap.Size
	ImageMaxBytes int64
}

type services struct {
	trips        *TripService
	itinerary    *ItineraryService
	tickets      *TicketService
	preparations *PreparationService
	expenses     *ExpenseService
	infos        *InfoService
	notices      *NoticeService
	places       *PlaceService
	audit        *AuditService
}

var current atomic.Pointer[services]

// Init 用给定依赖构建全部服务，可重复调用（测试中替换依赖）
func Init(d Deps) {
	current.Store(&services{
		trips:        &TripService{deps: d},
		itinerary:    &ItineraryService{deps: d},
		tickets:      &TicketService{deps: d, table: newChildTable(d, model.TableTickets, d.Tickets, ticketsOf)},
		preparations: &PreparationService{deps: d, table: newChildTable(d, model.TablePreparations, d.Preparations, preparationsOf)},
		expenses:     &ExpenseService{deps: d, table: newChildTable(d, model.TableExpenses, d.Expenses, expensesOf)},
		infos:        &InfoService{deps: d, table: newChildTable(d, model.TableInfos, d.Infos, infosOf)},
		notices:      &NoticeService{deps: d, table: newChildTable(d, model.TableNotices, d.Notices, noticesOf)},
		places:       &PlaceService{deps: d},
		audit:        &AuditService{deps: d},
	})
}

func get() *services {
	s := current.Load()
	if s == nil {
		panic("services not initialized, call service.Init() first")
	}
	return s
}

func Trips() *TripService               { return get().trips }
func Itinerary() *ItineraryService      { return get().itinerary }
func Tickets() *TicketService           { return get().tickets }
func Preparations() *PreparationService { return get().preparations }
func Expenses() *ExpenseService         { return get().expenses }
func Infos() *InfoService               { return get().infos }
func Notices() *NoticeService           { return get().notices }
func Places() *PlaceService             { return get().places }
func Audit() *AuditService              { return get().audit }

// workspace 打开（或复用）行程工作区
func workspace(ctx context.Context, d Deps, tripID int64) (*store.Workspace, error) {
	w, err := d.Registry.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// refreshAfterWrite 写入成功后重新拉取；失败只记录日志
func refreshAfterWrite(ctx context.Context, tripID int64, table model.ChangeTable, refresh func(context.Context) error) {
	if err := refresh(ctx); err != nil {
		logger.Logger.Warn("Failed to refresh after write",
			zap.Int64("trip_id", tripID),
			zap.String("table", string(table)),
			zap.Error(err),
		)
	}
}

func nextID(d Deps) (int64, error) {
	id, err := d.NewID()
	if err != nil {
		return 0, pkgerrors.Persistence("id.generate", err)
	}
	return id, nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
