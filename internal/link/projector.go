package link

import (
	"TripMate/internal/model"
)

// Enriched 条目加上关联摘要，只在读取时计算
type Enriched struct {
	model.ItineraryEntry
	Links
}

// Project 为每个条目计算关联摘要，复杂度 O(条目数 × 记录数)
func Project(entries []model.ItineraryEntry, c Collections) []Enriched {
	out := make([]Enriched, 0, len(entries))
	for _, e := range entries {
		out = append(out, Enriched{ItineraryEntry: e, Links: Resolve(e.ID, c)})
	}
	return out
}

// Warning 悬空引用：记录指向的条目已不存在
type Warning struct {
	Table        model.ChangeTable `json:"table"`
	RecordID     int64             `json:"record_id"`
	MissingEntry int64             `json:"missing_entry_id"`
}

// Dangling 列出所有指向不存在条目的记录
func Dangling(entries []model.ItineraryEntry, c Collections) []Warning {
	known := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		known[e.ID] = struct{}{}
	}

	var out []Warning
	out = appendDangling(out, model.TableTickets, c.Tickets, known)
	out = appendDangling(out, model.TablePreparations, c.Preparations, known)
	out = appendDangling(out, model.TableExpenses, c.Expenses, known)
	out = appendDangling(out, model.TableInfos, c.Infos, known)
	return out
}

func appendDangling[T model.Linkable](out []Warning, table model.ChangeTable, records []T, known map[int64]struct{}) []Warning {
	for _, r := range records {
		linked := r.LinkedEntryID()
		if linked == nil {
			continue
		}
		if _, ok := known[*linked]; !ok {
			out = append(out, Warning{Table: table, RecordID: r.GetID(), MissingEntry: *linked})
		}
	}
	return out
}
