package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"TripMate/internal/link"
	"TripMate/internal/model"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
)

// AuditService 巡检所有行程的悬空关联，只记录不修复
type AuditService struct {
	deps Deps
}

// Run 返回发现的悬空关联总数；单个行程失败不影响其他行程
func (s *AuditService) Run(ctx context.Context) (int, error) {
	tripIDs, err := s.deps.Trips.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list trips: %w", err)
	}

	perTable := make(map[model.ChangeTable]int)
	total := 0
	for _, tripID := range tripIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		warnings, err := s.Trip(ctx, tripID)
		if err != nil {
			logger.Logger.Error("Failed to audit trip links", zap.Int64("trip_id", tripID), zap.Error(err))
			continue
		}
		for _, w := range warnings {
			logger.Logger.Warn(pkgerrors.LinkDangling.Message,
				zap.String("code", pkgerrors.LinkDangling.Code),
				zap.Int64("trip_id", tripID),
				zap.String("table", string(w.Table)),
				zap.Int64("record_id", w.RecordID),
				zap.Int64("missing_entry_id", w.MissingEntry),
			)
			perTable[w.Table]++
		}
		total += len(warnings)
	}

	for table, count := range perTable {
		metrics.RecordDangling(ctx, string(table), count)
	}

	logger.Logger.Info("Link audit finished",
		zap.Int("trips", len(tripIDs)),
		zap.Int("dangling", total),
	)
	return total, nil
}

// Trip 并发读取一个行程的条目和四类记录后比对
func (s *AuditService) Trip(ctx context.Context, tripID int64) ([]link.Warning, error) {
	var (
		entries []model.ItineraryEntry
		c       link.Collections
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		entries, err = s.deps.Itinerary.ListByTrip(gctx, tripID)
		return err
	})
	g.Go(func() (err error) {
		c.Tickets, err = s.deps.Tickets.ListByTrip(gctx, tripID)
		return err
	})
	g.Go(func() (err error) {
		c.Preparations, err = s.deps.Preparations.ListByTrip(gctx, tripID)
		return err
	})
	g.Go(func() (err error) {
		c.Expenses, err = s.deps.Expenses.ListByTrip(gctx, tripID)
		return err
	})
	g.Go(func() (err error) {
		c.Infos, err = s.deps.Infos.ListByTrip(gctx, tripID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Persistence("audit.list", err)
	}

	return link.Dangling(entries, c), nil
}
