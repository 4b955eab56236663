package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"TripMate/internal/model"
	"TripMate/internal/repository"
)

type memTrips struct {
	trip *model.Trip
}

func (m *memTrips) Get(_ context.Context, id int64) (*model.Trip, error) {
	if m.trip == nil || m.trip.ID != id {
		return nil, repository.ErrNotFound
	}
	t := *m.trip
	return &t, nil
}

func tokyoTrip(id int64) *model.Trip {
	trip := &model.Trip{
		Title:     "Tokyo",
		StartDate: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC),
	}
	trip.ID = id
	return trip
}

type memEntries struct {
	mu        sync.Mutex
	rows      []model.ItineraryEntry
	createErr error
	listErr   error
	creates   int
	lists     int
}

func (m *memEntries) ListByTrip(_ context.Context, tripID int64) ([]model.ItineraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.ItineraryEntry
	for _, e := range m.rows {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntries) Get(_ context.Context, tripID, id int64) (*model.ItineraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.TripID == tripID && e.ID == id {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memEntries) Create(_ context.Context, e *model.ItineraryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memEntries) Update(_ context.Context, tripID, id int64, cols map[string]interface{}) (*model.ItineraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		e := &m.rows[i]
		if e.TripID != tripID || e.ID != id {
			continue
		}
		applyColumns(e, cols)
		out := *e
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memEntries) Delete(_ context.Context, tripID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.rows {
		if e.TripID == tripID && e.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func stringPtr(v interface{}) *string {
	switch x := v.(type) {
	case string:
		return &x
	case *string:
		return x
	}
	return nil
}

func floatPtr(v interface{}) *float64 {
	if x, ok := v.(float64); ok {
		return &x
	}
	return nil
}

func applyColumns(e *model.ItineraryEntry, cols map[string]interface{}) {
	for col, v := range cols {
		switch col {
		case "title":
			e.Title = v.(string)
		case "day":
			e.Day = v.(int)
		case "time":
			e.Time = stringPtr(v)
		case "description":
			e.Description = stringPtr(v)
		case "location_name":
			e.LocationName = stringPtr(v)
		case "address":
			e.Address = stringPtr(v)
		case "latitude":
			e.Latitude = floatPtr(v)
		case "longitude":
			e.Longitude = floatPtr(v)
		case "image":
			e.Image = stringPtr(v)
		case "image_position_x":
			e.ImagePositionX = v.(float64)
		case "image_position_y":
			e.ImagePositionY = v.(float64)
		case "image_scale":
			e.ImageScale = v.(int)
		case "is_checked":
			e.IsChecked = v.(bool)
		}
	}
}

type memList[T any] struct {
	mu    sync.Mutex
	rows  []T
	lists int
}

func (m *memList[T]) ListByTrip(context.Context, int64) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]T, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memList[T]) set(rows ...T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

func (m *memList[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

type changeLog struct {
	mu   sync.Mutex
	msgs []string
}

func (c *changeLog) record(_ context.Context, table model.ChangeTable, op model.ChangeOp, _ int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, string(table)+":"+string(op))
}

var errDown = errors.New("connection refused")

func sequence() func() (int64, error) {
	var mu sync.Mutex
	next := int64(100)
	return func() (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return next, nil
	}
}

// gatedList 第一次拉取先取快照，再阻塞到放行
type gatedList[T any] struct {
	memList[T]
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedList[T any]() *gatedList[T] {
	return &gatedList[T]{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedList[T]) ListByTrip(ctx context.Context, tripID int64) ([]T, error) {
	rows, err := g.memList.ListByTrip(ctx, tripID)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return rows, err
}

type failingList[T any] struct{}

func (failingList[T]) ListByTrip(context.Context, int64) ([]T, error) {
	return nil, errDown
}
