// Package link 计算日程条目与四类关联记录之间的双向关系。
// 所有结果都从当前快照重新计算，不做增量维护。
package link

import (
	"TripMate/internal/model"
)

// Collections 一个行程下四类可关联记录的快照，保持拉取时的顺序
type Collections struct {
	Tickets      []model.TicketType
	Preparations []model.Preparation
	Expenses     []model.Expense
	Infos        []model.SharedInfo
}

// Links 单个条目的关联摘要
type Links struct {
	HasTicket bool   `json:"has_ticket"`
	PrepID    *int64 `json:"prep_id"`
	InfoID    *int64 `json:"info_id"`
	ExpenseID *int64 `json:"expense_id"`
}

// First 按集合顺序返回第一条指向 entryID 的记录
func First[T model.Linkable](records []T, entryID int64) (T, bool) {
	for _, r := range records {
		if linked := r.LinkedEntryID(); linked != nil && *linked == entryID {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func firstID[T model.Linkable](records []T, entryID int64) *int64 {
	r, ok := First(records, entryID)
	if !ok {
		return nil
	}
	id := r.GetID()
	return &id
}

// Resolve 计算单个条目的关联摘要
func Resolve(entryID int64, c Collections) Links {
	_, hasTicket := First(c.Tickets, entryID)
	return Links{
		HasTicket: hasTicket,
		PrepID:    firstID(c.Preparations, entryID),
		InfoID:    firstID(c.Infos, entryID),
		ExpenseID: firstID(c.Expenses, entryID),
	}
}

// LinkedItemName 把所有天的条目摊平后查找标题；空引用或悬空引用返回 false
func LinkedItemName(days map[int][]model.ItineraryEntry, entryID *int64) (string, bool) {
	if entryID == nil {
		return "", false
	}
	for _, entries := range days {
		for i := range entries {
			if entries[i].ID == *entryID {
				return entries[i].Title, true
			}
		}
	}
	return "", false
}

// NamePtr LinkedItemName 的指针形式，便于直接序列化为 null
func NamePtr(days map[int][]model.ItineraryEntry, entryID *int64) *string {
	name, ok := LinkedItemName(days, entryID)
	if !ok {
		return nil
	}
	return &name
}

// GroupByDay 按 day 分组，保留原有顺序
func GroupByDay(entries []model.ItineraryEntry) map[int][]model.ItineraryEntry {
	days := make(map[int][]model.ItineraryEntry)
	for _, e := range entries {
		days[e.Day] = append(days[e.Day], e)
	}
	return days
}
