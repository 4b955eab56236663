package service

import (
	"context"
	"strings"

	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/validation"
)

type NoticeService struct {
	deps  Deps
	table childTable[model.Notice]
}

// List 最新的在前
func (s *NoticeService) List(ctx context.Context, tripID int64) ([]model.Notice, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	items := s.table.items(w)
	out := make([]model.Notice, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	return out, nil
}

func (s *NoticeService) Create(ctx context.Context, tripID int64, req dto.NoticeRequest) (*model.Notice, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.ValidationFailed.WithMessage("content is required")
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	n := &model.Notice{TripID: tripID, Content: content, Author: strings.TrimSpace(req.Author)}
	n.ID = id
	if err := s.table.create(ctx, w, n); err != nil {
		return nil, err
	}
	if fresh, ok := s.table.find(w, id); ok {
		return &fresh, nil
	}
	return n, nil
}

func (s *NoticeService) Delete(ctx context.Context, tripID, noticeID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	return s.table.remove(ctx, w, noticeID)
}
