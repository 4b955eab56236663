// Package routemap 把某一天的日程条目投影到地图上：
// 过滤有坐标的条目、按时间排序、合并重复地点、生成路线和视野。
package routemap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"TripMate/internal/model"
	"TripMate/utils"
)

// LatLng 经纬度
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Visit 某地点的一次到访
type Visit struct {
	Index   int    `json:"index"`
	EntryID int64  `json:"entry_id"`
	Time    string `json:"time,omitempty"`
	Title   string `json:"title"`
}

// Marker 每个唯一地点一个标记，Label 为首次到访的序号
type Marker struct {
	Key      string  `json:"key"`
	Position LatLng  `json:"position"`
	Label    int     `json:"label"`
	Hub      bool    `json:"hub"`
	Visits   []Visit `json:"visits"`
}

// Info 信息窗内容，每次到访一行
func (m Marker) Info() []string {
	lines := make([]string, 0, len(m.Visits))
	for _, v := range m.Visits {
		if v.Time == "" {
			lines = append(lines, fmt.Sprintf("%d. %s", v.Index, v.Title))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s", v.Index, v.Time, v.Title))
	}
	return lines
}

// Bounds 覆盖所有坐标的矩形
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// Center 矩形中心
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

func (b *Bounds) extend(p LatLng) {
	if p.Lat < b.SouthWest.Lat {
		b.SouthWest.Lat = p.Lat
	}
	if p.Lng < b.SouthWest.Lng {
		b.SouthWest.Lng = p.Lng
	}
	if p.Lat > b.NorthEast.Lat {
		b.NorthEast.Lat = p.Lat
	}
	if p.Lng > b.NorthEast.Lng {
		b.NorthEast.Lng = p.Lng
	}
}

// Plan 一天的地图数据
type Plan struct {
	Stops     []model.ItineraryEntry
	Markers   []Marker
	Path      []LatLng
	Bounds    Bounds
	Signature string
}

// Empty 没有任何带坐标的条目
func (p Plan) Empty() bool {
	return len(p.Stops) == 0
}

// HasRoute 至少两个点才画路线
func (p Plan) HasRoute() bool {
	return len(p.Path) >= 2
}

// CoordKey 经纬度各保留 5 位小数，约 1 米
func CoordKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lng, 'f', 5, 64)
}

// Build 只接收当前选中那一天的条目
func Build(entries []model.ItineraryEntry) Plan {
	stops := sortStops(filterGeocoded(entries))

	plan := Plan{Stops: stops}
	if len(stops) == 0 {
		return plan
	}

	byKey := make(map[string]int, len(stops))
	plan.Path = make([]LatLng, 0, len(stops))
	first := LatLng{Lat: *stops[0].Latitude, Lng: *stops[0].Longitude}
	plan.Bounds = Bounds{SouthWest: first, NorthEast: first}

	var sig strings.Builder
	for i := range stops {
		s := &stops[i]
		pos := LatLng{Lat: *s.Latitude, Lng: *s.Longitude}
		key := CoordKey(pos.Lat, pos.Lng)
		index := i + 1

		plan.Path = append(plan.Path, pos)
		plan.Bounds.extend(pos)

		visit := Visit{Index: index, EntryID: s.ID, Time: s.TimeValue(), Title: s.Title}
		if at, ok := byKey[key]; ok {
			m := &plan.Markers[at]
			m.Visits = append(m.Visits, visit)
			m.Hub = true
		} else {
			byKey[key] = len(plan.Markers)
			plan.Markers = append(plan.Markers, Marker{
				Key:      key,
				Position: pos,
				Label:    index,
				Visits:   []Visit{visit},
			})
		}

		// 只看 id、坐标和时间，改标题不重建地图
		fmt.Fprintf(&sig, "%d@%s|%s;", s.ID, key, s.TimeValue())
	}
	plan.Signature = sig.String()

	return plan
}

func filterGeocoded(entries []model.ItineraryEntry) []model.ItineraryEntry {
	out := make([]model.ItineraryEntry, 0, len(entries))
	for i := range entries {
		if entries[i].HasCoordinates() {
			out = append(out, entries[i])
		}
	}
	return out
}

// sortStops 有时间的按时间升序在前，无时间（或时间无法解析）的保持原顺序排在后面
func sortStops(stops []model.ItineraryEntry) []model.ItineraryEntry {
	type keyed struct {
		entry   model.ItineraryEntry
		minute  int
		hasTime bool
	}

	items := make([]keyed, len(stops))
	for i := range stops {
		items[i].entry = stops[i]
		if stops[i].Time == nil {
			continue
		}
		if m, err := utils.ParseClock(*stops[i].Time); err == nil {
			items[i].minute, items[i].hasTime = m, true
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasTime && b.hasTime {
			return a.minute < b.minute
		}
		return a.hasTime && !b.hasTime
	})

	for i := range items {
		stops[i] = items[i].entry
	}
	return stops
}
