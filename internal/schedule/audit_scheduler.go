package schedule

// 关联巡检：定期扫描所有行程的悬空关联，只记录日志和指标

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"TripMate/internal/cache"
	"TripMate/pkg/logger"
)

const auditLockKey = "link_audit"

// Auditor 由 service.AuditService 实现
type Auditor interface {
	Run(ctx context.Context) (int, error)
}

type LinkAuditScheduler struct {
	auditor Auditor
	timeout time.Duration

	tryLock func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	unlock  func(ctx context.Context, key string) error

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewLinkAuditScheduler(auditor Auditor, timeout time.Duration) *LinkAuditScheduler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &LinkAuditScheduler{
		auditor: auditor,
		timeout: timeout,
		tryLock: cache.TryLock,
		unlock:  cache.Unlock,
	}
}

// RunOnce 执行一次巡检。本进程已在运行或其他实例持有锁时跳过，返回 ran=false
func (s *LinkAuditScheduler) RunOnce(ctx context.Context) (bool, int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Logger.Info("Link audit already running, skipping")
		return false, 0, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	// 锁的 TTL 与超时一致，进程崩溃后锁会自然过期
	locked, err := s.tryLock(ctx, auditLockKey, s.timeout)
	if err != nil {
		return false, 0, fmt.Errorf("failed to acquire audit lock: %w", err)
	}
	if !locked {
		logger.Logger.Info("Link audit lock held by another instance, skipping")
		return false, 0, nil
	}
	defer func() {
		if err := s.unlock(context.Background(), auditLockKey); err != nil {
			logger.Logger.Warn("Failed to release audit lock", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.mu.Lock()
	s.lastRun = start
	s.mu.Unlock()
	dangling, err := s.auditor.Run(runCtx)
	if err != nil {
		return true, dangling, fmt.Errorf("failed to run link audit: %w", err)
	}

	logger.Logger.Info("Link audit run completed",
		zap.Int("dangling", dangling),
		zap.Duration("elapsed", time.Since(start)),
	)
	return true, dangling, nil
}

// LastRun 最近一次真正执行的开始时间
func (s *LinkAuditScheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Start 注册 gocron 定时任务并立即执行一次，调用方负责 Shutdown
func (s *LinkAuditScheduler) Start(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, _, err := s.RunOnce(ctx); err != nil {
				logger.Logger.Error("Link audit run failed", zap.Error(err))
			}
		}),
		gocron.WithName("link_audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register link audit job: %w", err)
	}

	sched.Start()
	logger.Logger.Info("Link audit scheduled", zap.Duration("interval", interval))
	return sched, nil
}
