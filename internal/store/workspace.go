package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/realtime"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
)

// Repositories 工作区读取用到的仓储
type Repositories struct {
	Trips        TripLoader
	Itinerary    EntryRepository
	Tickets      Lister[model.TicketType]
	Preparations Lister[model.Preparation]
	Expenses     Lister[model.Expense]
	Infos        Lister[model.SharedInfo]
	Notices      Lister[model.Notice]
}

// Config 工作区依赖
type Config struct {
	Repos    Repositories
	Bus      realtime.Bus
	NewID    func() (int64, error)
	Debounce time.Duration
}

// Workspace 一个行程的全部快照，订阅各自的表
type Workspace struct {
	tripID int64
	bus    realtime.Bus

	ctx    context.Context
	cancel context.CancelFunc

	Itinerary    *ItineraryStore
	Tickets      *Collection[model.TicketType]
	Preparations *Collection[model.Preparation]
	Expenses     *Collection[model.Expense]
	Infos        *Collection[model.SharedInfo]
	Notices      *Collection[model.Notice]

	echoMu sync.Mutex
	echo   map[string]struct{}

	subMu    sync.Mutex
	unsubs   []func()
	lastUsed atomic.Int64
	closed   atomic.Bool
}

func NewWorkspace(tripID int64, cfg Config) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		tripID: tripID,
		bus:    cfg.Bus,
		ctx:    ctx,
		cancel: cancel,
		echo:   make(map[string]struct{}),
	}

	r := cfg.Repos
	w.Itinerary = NewItineraryStore(tripID, ItineraryConfig{
		Repo:     r.Itinerary,
		Trips:    r.Trips,
		NewID:    cfg.NewID,
		Changed:  w.Changed,
		Debounce: cfg.Debounce,
	})
	w.Tickets = NewCollection[model.TicketType](tripID, model.TableTickets, r.Tickets, cfg.Debounce)
	w.Preparations = NewCollection[model.Preparation](tripID, model.TablePreparations, r.Preparations, cfg.Debounce)
	w.Expenses = NewCollection[model.Expense](tripID, model.TableExpenses, r.Expenses, cfg.Debounce)
	w.Infos = NewCollection[model.SharedInfo](tripID, model.TableInfos, r.Infos, cfg.Debounce)
	w.Notices = NewCollection[model.Notice](tripID, model.TableNotices, r.Notices, cfg.Debounce)
	w.Touch()
	return w
}

func (w *Workspace) TripID() int64 {
	return w.tripID
}

// Open 先订阅变更，再并发拉取行程和所有表。
// 首次拉取期间到达的通知交给各表的合并刷新处理
func (w *Workspace) Open(ctx context.Context) error {
	w.subscribe()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.Itinerary.LoadTrip(gctx) })
	g.Go(func() error { return w.Itinerary.Refresh(gctx) })
	g.Go(func() error { return refreshCollection(gctx, w.Tickets) })
	g.Go(func() error { return refreshCollection(gctx, w.Preparations) })
	g.Go(func() error { return refreshCollection(gctx, w.Expenses) })
	g.Go(func() error { return refreshCollection(gctx, w.Infos) })
	g.Go(func() error { return refreshCollection(gctx, w.Notices) })

	if err := g.Wait(); err != nil {
		w.unsubscribe()
		return err
	}
	return nil
}

func refreshCollection[T any](ctx context.Context, c *Collection[T]) error {
	if err := c.Refresh(ctx); err != nil {
		return pkgerrors.Persistence(string(c.Table())+".list", err)
	}
	return nil
}

func (w *Workspace) subscribe() {
	if w.bus == nil {
		return
	}

	notifiers := map[model.ChangeTable]func(context.Context){
		model.TableItinerary:    w.Itinerary.Notify,
		model.TableTickets:      w.Tickets.Notify,
		model.TablePreparations: w.Preparations.Notify,
		model.TableExpenses:     w.Expenses.Notify,
		model.TableInfos:        w.Infos.Notify,
		model.TableNotices:      w.Notices.Notify,
		model.TableTrips:        w.reloadTrip,
	}

	w.subMu.Lock()
	defer w.subMu.Unlock()
	for table, notify := range notifiers {
		notify := notify
		w.unsubs = append(w.unsubs, w.bus.Subscribe(w.tripID, table, func(_ context.Context, msg model.ChangeMessage) {
			if w.isEcho(msg.MessageID) {
				return
			}
			notify(w.ctx)
		}))
	}
}

func (w *Workspace) reloadTrip(ctx context.Context) {
	go func() {
		if err := w.Itinerary.LoadTrip(ctx); err != nil {
			logger.Logger.Warn("Failed to reload trip", zap.Int64("trip_id", w.tripID), zap.Error(err))
		}
	}()
}

func (w *Workspace) isEcho(id string) bool {
	w.echoMu.Lock()
	defer w.echoMu.Unlock()
	_, ok := w.echo[id]
	return ok
}

// Changed 发布本工作区产生的变更。本地订阅会跳过这条消息，调用方自己负责重新拉取
func (w *Workspace) Changed(ctx context.Context, table model.ChangeTable, op model.ChangeOp, recordID int64) {
	if w.bus == nil {
		return
	}

	msg := realtime.NewChange(w.tripID, table, op, recordID)

	w.echoMu.Lock()
	w.echo[msg.MessageID] = struct{}{}
	w.echoMu.Unlock()

	err := w.bus.Publish(ctx, msg)

	w.echoMu.Lock()
	delete(w.echo, msg.MessageID)
	w.echoMu.Unlock()

	metrics.RecordChangePublished(ctx, string(table), err)
	if err != nil {
		logger.Logger.Warn("Failed to publish change",
			zap.Int64("trip_id", w.tripID),
			zap.String("table", string(table)),
			zap.Int64("record_id", recordID),
			zap.Error(err),
		)
	}
}

// Loading 任一表有拉取未返回
func (w *Workspace) Loading() bool {
	return w.Itinerary.Loading() ||
		w.Tickets.Loading() ||
		w.Preparations.Loading() ||
		w.Expenses.Loading() ||
		w.Infos.Loading() ||
		w.Notices.Loading()
}

// Collections 四类可关联记录的当前快照
func (w *Workspace) Collections() link.Collections {
	return link.Collections{
		Tickets:      w.Tickets.Items(),
		Preparations: w.Preparations.Items(),
		Expenses:     w.Expenses.Items(),
		Infos:        w.Infos.Items(),
	}
}

// Enriched 条目及其关联摘要，每次调用重新计算
func (w *Workspace) Enriched(ctx context.Context) []link.Enriched {
	start := time.Now()
	entries := w.Itinerary.Entries()
	out := link.Project(entries, w.Collections())
	metrics.RecordProjection(ctx, len(entries), time.Since(start).Seconds())
	return out
}

// Dangling 指向已删除条目的记录
func (w *Workspace) Dangling() []link.Warning {
	return link.Dangling(w.Itinerary.Entries(), w.Collections())
}

// Touch 记录最近使用时间
func (w *Workspace) Touch() {
	w.lastUsed.Store(time.Now().UnixNano())
}

func (w *Workspace) LastUsed() time.Time {
	return time.Unix(0, w.lastUsed.Load())
}

// Wait 等待所有后台刷新结束
func (w *Workspace) Wait() {
	w.Itinerary.Wait()
	w.Tickets.Wait()
	w.Preparations.Wait()
	w.Expenses.Wait()
	w.Infos.Wait()
	w.Notices.Wait()
}

// Close 退订并停止后台刷新，可重复调用
func (w *Workspace) Close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.unsubscribe()
	w.cancel()
	w.Wait()
}

func (w *Workspace) unsubscribe() {
	w.subMu.Lock()
	unsubs := w.unsubs
	w.unsubs = nil
	w.subMu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
}
