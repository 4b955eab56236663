package service

import (
	"context"

	"TripMate/internal/model"
	"TripMate/internal/repository"
	"TripMate/internal/store"
	pkgerrors "TripMate/pkg/errors"
)

// childTable 子表写入：落库、发布变更、重新拉取快照
type childTable[T model.Record] struct {
	d     Deps
	table model.ChangeTable
	repo  RecordRepository[T]
	of    func(*store.Workspace) *store.Collection[T]
}

func newChildTable[T model.Record](d Deps, table model.ChangeTable, repo RecordRepository[T], of func(*store.Workspace) *store.Collection[T]) childTable[T] {
	return childTable[T]{d: d, table: table, repo: repo, of: of}
}

func ticketsOf(w *store.Workspace) *store.Collection[model.TicketType]       { return w.Tickets }
func preparationsOf(w *store.Workspace) *store.Collection[model.Preparation] { return w.Preparations }
func expensesOf(w *store.Workspace) *store.Collection[model.Expense]         { return w.Expenses }
func infosOf(w *store.Workspace) *store.Collection[model.SharedInfo]         { return w.Infos }
func noticesOf(w *store.Workspace) *store.Collection[model.Notice]           { return w.Notices }

func (c childTable[T]) op(name string) string {
	return string(c.table) + "." + name
}

func (c childTable[T]) items(w *store.Workspace) []T {
	return c.of(w).Items()
}

// find 在当前快照里查找
func (c childTable[T]) find(w *store.Workspace, id int64) (T, bool) {
	for _, r := range c.items(w) {
		if r.GetID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// get 从仓储读取最新记录
func (c childTable[T]) get(ctx context.Context, tripID, id int64) (*T, error) {
	rec, err := c.repo.Get(ctx, tripID, id)
	if err != nil {
		return nil, recordError(c.op("get"), err)
	}
	return rec, nil
}

func (c childTable[T]) create(ctx context.Context, w *store.Workspace, rec *T) error {
	if err := c.repo.Create(ctx, rec); err != nil {
		return pkgerrors.Persistence(c.op("create"), err)
	}
	c.after(ctx, w, model.OpInsert, (*rec).GetID())
	return nil
}

func (c childTable[T]) update(ctx context.Context, w *store.Workspace, id int64, cols map[string]interface{}) (*T, error) {
	if len(cols) == 0 {
		return c.get(ctx, w.TripID(), id)
	}
	rec, err := c.repo.Update(ctx, w.TripID(), id, cols)
	if err != nil {
		return nil, recordError(c.op("update"), err)
	}
	c.after(ctx, w, model.OpUpdate, id)
	return rec, nil
}

func (c childTable[T]) remove(ctx context.Context, w *store.Workspace, id int64) error {
	if err := c.repo.Delete(ctx, w.TripID(), id); err != nil {
		return recordError(c.op("delete"), err)
	}
	c.after(ctx, w, model.OpDelete, id)
	return nil
}

// touched 记录未直接变化但需要通知订阅方，例如登记和个人勾选
func (c childTable[T]) touched(ctx context.Context, w *store.Workspace, id int64) {
	c.after(ctx, w, model.OpUpdate, id)
}

func (c childTable[T]) after(ctx context.Context, w *store.Workspace, op model.ChangeOp, id int64) {
	w.Changed(ctx, c.table, op, id)
	refreshAfterWrite(ctx, w.TripID(), c.table, c.of(w).Refresh)
}

func recordError(op string, err error) error {
	if repository.IsNotFound(err) {
		return pkgerrors.RecordNotFound
	}
	return pkgerrors.Persistence(op, err)
}

// linkColumn 关联字段：显式 null 解除关联
func linkColumn(cols map[string]interface{}, v model.Nullable[int64]) {
	if !v.Set {
		return
	}
	if v.IsNull() {
		cols["linked_itinerary_id"] = nil
		return
	}
	cols["linked_itinerary_id"] = *v.Value
}

// checkLink 关联目标必须是本行程快照里的条目
func checkLink(w *store.Workspace, v model.Nullable[int64]) error {
	if !v.Set || v.IsNull() {
		return nil
	}
	if _, ok := w.Itinerary.Entry(*v.Value); !ok {
		return pkgerrors.InvalidLink
	}
	return nil
}
