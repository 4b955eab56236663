// Package store 持有每个行程的最新快照：日程条目、四类可关联记录和公告。
// 每次写入后整表重新拉取，不做乐观合并；变更通知触发合并后的后台刷新。
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
)

// Fetcher 拉取一次完整快照
type Fetcher[T any] func(ctx context.Context) ([]T, error)

const refreshTimeout = 10 * time.Second

// Live 一张表的快照。拉取按开始顺序编号，只有比已应用更新的结果才会覆盖快照
type Live[T any] struct {
	name     string
	fetch    Fetcher[T]
	debounce time.Duration

	mu       sync.Mutex
	data     []T
	loaded   bool
	nextSeq  uint64
	applied  uint64
	inflight int

	// 合并刷新：运行中再收到通知只置脏位
	refreshing bool
	dirty      bool
	wg         sync.WaitGroup
}

func NewLive[T any](name string, fetch Fetcher[T], debounce time.Duration) *Live[T] {
	return &Live[T]{name: name, fetch: fetch, debounce: debounce}
}

// Refresh 同步拉取；失败时保留原快照
func (l *Live[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.nextSeq++
	seq := l.nextSeq
	l.inflight++
	l.mu.Unlock()

	start := time.Now()
	data, err := l.fetch(ctx)
	metrics.RecordRefresh(ctx, l.name, time.Since(start).Seconds(), err)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--

	if err != nil {
		return err
	}
	if seq > l.applied {
		l.data = data
		l.applied = seq
		l.loaded = true
	}
	return nil
}

// Notify 请求一次后台刷新。连续的通知最多合并成一次额外拉取
func (l *Live[T]) Notify(ctx context.Context) {
	l.mu.Lock()
	if l.refreshing {
		l.dirty = true
		l.mu.Unlock()
		return
	}
	l.refreshing = true
	l.wg.Add(1)
	l.mu.Unlock()

	go l.loop(ctx)
}

func (l *Live[T]) loop(ctx context.Context) {
	defer l.wg.Done()

	for {
		if l.debounce > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.debounce):
			}
		}

		// 拉取开始前到达的通知都由这次拉取覆盖
		l.mu.Lock()
		l.dirty = false
		l.mu.Unlock()

		if ctx.Err() == nil {
			fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
			if err := l.Refresh(fetchCtx); err != nil {
				logger.Logger.Warn("Background refresh failed",
					zap.String("table", l.name),
					zap.Error(err),
				)
			}
			cancel()
		}

		l.mu.Lock()
		if !l.dirty || ctx.Err() != nil {
			l.dirty = false
			l.refreshing = false
			l.mu.Unlock()
			return
		}
		l.dirty = false
		l.mu.Unlock()
	}
}

// Wait 等待后台刷新结束
func (l *Live[T]) Wait() {
	l.wg.Wait()
}

// Snapshot 返回当前快照的副本
func (l *Live[T]) Snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.data))
	copy(out, l.data)
	return out
}

// Loading 是否有拉取尚未返回
func (l *Live[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight > 0 || l.refreshing
}

// Loaded 是否至少成功拉取过一次
func (l *Live[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
