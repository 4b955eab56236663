package service

import (
	"context"
	"strings"

	"TripMate/internal/link"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/store"
	pkgerrors "TripMate/pkg/errors"
)

type ExpenseService struct {
	deps  Deps
	table childTable[model.Expense]
}

func (s *ExpenseService) List(ctx context.Context, tripID int64) ([]dto.ExpenseView, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	days := w.Itinerary.Days()
	items := s.table.items(w)
	out := make([]dto.ExpenseView, 0, len(items))
	for _, e := range items {
		out = append(out, dto.ExpenseView{Expense: e, LinkedEntryName: link.NamePtr(days, e.LinkedItineraryID)})
	}
	return out, nil
}

// Summary 总额以及按付款人、类别的小计
func (s *ExpenseService) Summary(ctx context.Context, tripID int64) (*dto.ExpenseSummary, error) {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	return Summarize(s.table.items(w)), nil
}

func Summarize(expenses []model.Expense) *dto.ExpenseSummary {
	sum := &dto.ExpenseSummary{
		ByPayer:    make(map[string]int64),
		ByCategory: make(map[string]int64),
		Count:      len(expenses),
	}
	for _, e := range expenses {
		sum.Total += e.Amount
		sum.ByPayer[e.Payer] += e.Amount
		sum.ByCategory[e.Category] += e.Amount
	}
	return sum
}

func (s *ExpenseService) Create(ctx context.Context, tripID int64, req dto.ExpenseRequest) (*dto.ExpenseView, error) {
	if !req.Title.Set || req.Title.IsNull() || strings.TrimSpace(*req.Title.Value) == "" {
		return nil, pkgerrors.TitleRequired
	}
	var amount int64
	if req.Amount.Set && !req.Amount.IsNull() {
		amount = *req.Amount.Value
	}
	if amount < 0 {
		return nil, pkgerrors.NegativeAmount
	}

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	id, err := nextID(s.deps)
	if err != nil {
		return nil, err
	}

	e := &model.Expense{
		TripID: tripID,
		Title:  strings.TrimSpace(*req.Title.Value),
		Amount: amount,
	}
	e.ID = id
	if req.Payer.Set && !req.Payer.IsNull() {
		e.Payer = *req.Payer.Value
	}
	if req.Category.Set && !req.Category.IsNull() {
		e.Category = *req.Category.Value
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if req.LinkedItineraryID.Set {
		e.LinkedItineraryID = req.LinkedItineraryID.Value
	}

	if err := s.table.create(ctx, w, e); err != nil {
		return nil, err
	}
	return s.current(ctx, w, id)
}

func (s *ExpenseService) Update(ctx context.Context, tripID, expenseID int64, req dto.ExpenseRequest) (*dto.ExpenseView, error) {
	cols := make(map[string]interface{})
	if req.Title.Set {
		if req.Title.IsNull() || strings.TrimSpace(*req.Title.Value) == "" {
			return nil, pkgerrors.TitleRequired
		}
		cols["title"] = strings.TrimSpace(*req.Title.Value)
	}
	if req.Amount.Set {
		var amount int64
		if !req.Amount.IsNull() {
			amount = *req.Amount.Value
		}
		if amount < 0 {
			return nil, pkgerrors.NegativeAmount
		}
		cols["amount"] = amount
	}
	for col, v := range map[string]model.Nullable[string]{"payer": req.Payer, "category": req.Category} {
		if !v.Set {
			continue
		}
		if v.IsNull() {
			cols[col] = ""
		} else {
			cols[col] = *v.Value
		}
	}
	linkColumn(cols, req.LinkedItineraryID)

	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return nil, err
	}
	if err := checkLink(w, req.LinkedItineraryID); err != nil {
		return nil, err
	}
	if _, err := s.table.update(ctx, w, expenseID, cols); err != nil {
		return nil, err
	}
	return s.current(ctx, w, expenseID)
}

func (s *ExpenseService) Delete(ctx context.Context, tripID, expenseID int64) error {
	w, err := workspace(ctx, s.deps, tripID)
	if err != nil {
		return err
	}
	return s.table.remove(ctx, w, expenseID)
}

func (s *ExpenseService) current(ctx context.Context, w *store.Workspace, id int64) (*dto.ExpenseView, error) {
	e, ok := s.table.find(w, id)
	if !ok {
		fresh, err := s.table.get(ctx, w.TripID(), id)
		if err != nil {
			return nil, err
		}
		e = *fresh
	}
	return &dto.ExpenseView{Expense: e, LinkedEntryName: link.NamePtr(w.Itinerary.Days(), e.LinkedItineraryID)}, nil
}
