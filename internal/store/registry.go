package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
)

// Registry 按行程缓存工作区，空闲超时后释放
type Registry struct {
	cfg  Config
	idle time.Duration

	mu     sync.Mutex
	spaces map[int64]*Workspace
	group  singleflight.Group
}

func NewRegistry(cfg Config, idle time.Duration) *Registry {
	return &Registry{cfg: cfg, idle: idle, spaces: make(map[int64]*Workspace)}
}

// Get 返回已打开的工作区，没有时打开一个；并发请求同一行程只打开一次
func (r *Registry) Get(ctx context.Context, tripID int64) (*Workspace, error) {
	r.mu.Lock()
	w, ok := r.spaces[tripID]
	r.mu.Unlock()
	if ok {
		w.Touch()
		return w, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(tripID, 10), func() (interface{}, error) {
		r.mu.Lock()
		if w, ok := r.spaces[tripID]; ok {
			r.mu.Unlock()
			return w, nil
		}
		r.mu.Unlock()

		w := NewWorkspace(tripID, r.cfg)
		if err := w.Open(ctx); err != nil {
			w.Close()
			return nil, err
		}

		r.mu.Lock()
		r.spaces[tripID] = w
		r.mu.Unlock()
		metrics.AddOpenWorkspaces(ctx, 1)

		logger.Logger.Info("Workspace opened", zap.Int64("trip_id", tripID))
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// Sweep 关闭空闲超过 idle 的工作区，返回关闭的数量
func (r *Registry) Sweep(now time.Time) int {
	var stale []*Workspace

	r.mu.Lock()
	for id, w := range r.spaces {
		if now.Sub(w.LastUsed()) >= r.idle {
			stale = append(stale, w)
			delete(r.spaces, id)
		}
	}
	r.mu.Unlock()

	for _, w := range stale {
		w.Close()
		metrics.AddOpenWorkspaces(context.Background(), -1)
		logger.Logger.Info("Workspace released", zap.Int64("trip_id", w.TripID()))
	}
	return len(stale)
}

// Run 周期性清理，ctx 取消时返回
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Len 当前打开的工作区数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Close 关闭全部工作区
func (r *Registry) Close() {
	r.mu.Lock()
	spaces := r.spaces
	r.spaces = make(map[int64]*Workspace)
	r.mu.Unlock()

	for _, w := range spaces {
		w.Close()
	}
}
