// Package testutil 内存版仓储和测试夹具，供 service / handler 测试使用。
package testutil

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"TripMate/internal/model"
	"TripMate/internal/repository"
)

// Records 内存表，列更新按 json 字段名应用（与列名一致）
type Records[T model.Record] struct {
	mu   sync.Mutex
	rows []T
	less func(a, b T) bool

	// Decorate 读取时补充关联数据，模拟 Preload
	Decorate func(*T)
	// Err 非 nil 时所有操作返回该错误
	Err error
}

func NewRecords[T model.Record](rows ...T) *Records[T] {
	return &Records[T]{
		rows: append([]T(nil), rows...),
		less: func(a, b T) bool { return a.GetID() < b.GetID() },
	}
}

// WithLess 替换列表排序
func (m *Records[T]) WithLess(less func(a, b T) bool) *Records[T] {
	m.less = less
	return m
}

func tripOf(rec interface{}) int64 {
	v := reflect.Indirect(reflect.ValueOf(rec))
	f := v.FieldByName("TripID")
	if !f.IsValid() {
		return 0
	}
	return f.Int()
}

func (m *Records[T]) decorate(rec T) T {
	if m.Decorate != nil {
		m.Decorate(&rec)
	}
	return rec
}

func (m *Records[T]) ListByTrip(_ context.Context, tripID int64) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]T, 0, len(m.rows))
	for _, r := range m.rows {
		if tripOf(r) == tripID {
			out = append(out, m.decorate(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return m.less(out[i], out[j]) })
	return out, nil
}

func (m *Records[T]) Get(_ context.Context, tripID, id int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.rows {
		if r.GetID() == id && tripOf(r) == tripID {
			out := m.decorate(r)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Records[T]) Create(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.rows = append(m.rows, *rec)
	return nil
}

func (m *Records[T]) Update(_ context.Context, tripID, id int64, cols map[string]interface{}) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i, r := range m.rows {
		if r.GetID() != id || tripOf(r) != tripID {
			continue
		}
		updated, err := applyColumns(r, cols)
		if err != nil {
			return nil, err
		}
		m.rows[i] = updated
		out := m.decorate(updated)
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (m *Records[T]) Delete(_ context.Context, tripID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, r := range m.rows {
		if r.GetID() == id && tripOf(r) == tripID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Rows 当前全部行
func (m *Records[T]) Rows() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.rows...)
}

func applyColumns[T any](rec T, cols map[string]interface{}) (T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec, err
	}
	for col, v := range cols {
		fields[col] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return rec, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return rec, err
	}
	return out, nil
}

// EntryLess 与仓储一致：day、time（空值在后）、id
func EntryLess(a, b model.ItineraryEntry) bool {
	if a.Day != b.Day {
		return a.Day < b.Day
	}
	switch {
	case a.Time != nil && b.Time == nil:
		return true
	case a.Time == nil && b.Time != nil:
		return false
	case a.Time != nil && b.Time != nil && *a.Time != *b.Time:
		return *a.Time < *b.Time
	}
	return a.ID < b.ID
}

// Trips 内存行程表
type Trips struct {
	mu    sync.Mutex
	trips map[int64]model.Trip
}

func NewTrips(trips ...model.Trip) *Trips {
	m := &Trips{trips: make(map[int64]model.Trip)}
	for _, t := range trips {
		m.trips[t.ID] = t
	}
	return m
}

func (m *Trips) Create(_ context.Context, trip *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *trip
	t.Participants = append([]model.Participant(nil), trip.Participants...)
	m.trips[t.ID] = t
	return nil
}

func (m *Trips) Get(_ context.Context, id int64) (*model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Participants = append([]model.Participant(nil), t.Participants...)
	sort.SliceStable(t.Participants, func(i, j int) bool {
		return t.Participants[i].Position < t.Participants[j].Position
	})
	return &t, nil
}

func (m *Trips) AddParticipant(_ context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[p.TripID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Participants = append(t.Participants, *p)
	m.trips[p.TripID] = t
	return nil
}

func (m *Trips) CountParticipants(_ context.Context, tripID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.trips[tripID].Participants)), nil
}

func (m *Trips) ListIDs(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.trips))
	for id := range m.trips {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Registrations 内存票据登记，(ticket, key) 唯一
type Registrations struct {
	mu   sync.Mutex
	rows []model.Registration
	// DeleteErr 非空时 DeleteByTicket 直接失败
	DeleteErr error
}

func (m *Registrations) Upsert(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.TicketTypeID == reg.TicketTypeID && r.Key == reg.Key {
			reg.ID = r.ID
			m.rows[i] = *reg
			return nil
		}
	}
	m.rows = append(m.rows, *reg)
	return nil
}

func (m *Registrations) Delete(_ context.Context, ticketTypeID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.TicketTypeID == ticketTypeID && r.Key == key {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *Registrations) DeleteByTicket(_ context.Context, ticketTypeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.TicketTypeID != ticketTypeID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

// For 某票种的登记，按 id 排序
func (m *Registrations) For(ticketTypeID int64) []model.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Registration{}
	for _, r := range m.rows {
		if r.TicketTypeID == ticketTypeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Checks 内存个人勾选
type Checks struct {
	mu   sync.Mutex
	rows map[[2]int64]bool
}

func NewChecks() *Checks {
	return &Checks{rows: make(map[[2]int64]bool)}
}

func (m *Checks) Upsert(_ context.Context, check *model.PreparationCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[[2]int64{check.PreparationID, check.ParticipantID}] = check.Checked
	return nil
}

func (m *Checks) CheckedBy(_ context.Context, participantID int64, preparationIDs []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool, len(preparationIDs))
	for _, id := range preparationIDs {
		if m.rows[[2]int64{id, participantID}] {
			out[id] = true
		}
	}
	return out, nil
}

// Sequence 从 start+1 开始递增的 ID 生成器
func Sequence(start int64) func() (int64, error) {
	var mu sync.Mutex
	next := start
	return func() (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return next, nil
	}
}
