package testutil

import (
	"time"

	"TripMate/internal/model"
	"TripMate/internal/realtime"
	"TripMate/internal/routemap"
	"TripMate/internal/service"
	"TripMate/internal/store"
	"TripMate/pkg/geocode"
	"TripMate/pkg/objectstore"
)

// Fixture 一套完整的内存依赖
type Fixture struct {
	Trips         *Trips
	Entries       *Records[model.ItineraryEntry]
	Tickets       *Records[model.TicketType]
	Registrations *Registrations
	Preparations  *Records[model.Preparation]
	Checks        *Checks
	Expenses      *Records[model.Expense]
	Infos         *Records[model.SharedInfo]
	Notices       *Records[model.Notice]

	Hub      *realtime.Hub
	Geocoder *geocode.MockClient
	Objects  *objectstore.MockClient
	Registry *store.Registry
	Deps     service.Deps
}

// TokyoTrip 2024-05-20..22，两名参与者 11、12
func TokyoTrip(id int64) model.Trip {
	trip := model.Trip{
		Title:     "Tokyo",
		StartDate: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC),
	}
	trip.ID = id
	for i, name := range []string{"Minji", "Jisoo"} {
		p := model.Participant{TripID: id, Name: name, Position: i}
		p.ID = 11 + int64(i)
		trip.Participants = append(trip.Participants, p)
	}
	return trip
}

func NewFixture(trips ...model.Trip) *Fixture {
	f := &Fixture{
		Trips:         NewTrips(trips...),
		Entries:       NewRecords[model.ItineraryEntry]().WithLess(EntryLess),
		Tickets:       NewRecords[model.TicketType](),
		Registrations: &Registrations{},
		Preparations:  NewRecords[model.Preparation](),
		Checks:        NewChecks(),
		Expenses:      NewRecords[model.Expense](),
		Infos:         NewRecords[model.SharedInfo](),
		Notices:       NewRecords[model.Notice](),
		Hub:           realtime.NewHub(),
		Geocoder:      geocode.NewMockClient(),
		Objects:       objectstore.NewMockClient(),
	}
	f.Tickets.Decorate = func(t *model.TicketType) {
		t.Registrations = f.Registrations.For(t.ID)
	}

	newID := Sequence(1000)
	f.Registry = store.NewRegistry(store.Config{
		Repos: store.Repositories{
			Trips:        f.Trips,
			Itinerary:    f.Entries,
			Tickets:      f.Tickets,
			Preparations: f.Preparations,
			Expenses:     f.Expenses,
			Infos:        f.Infos,
			Notices:      f.Notices,
		},
		Bus:   f.Hub,
		NewID: newID,
	}, time.Hour)

	f.Deps = service.Deps{
		Registry:      f.Registry,
		Trips:         f.Trips,
		Itinerary:     f.Entries,
		Tickets:       f.Tickets,
		Registrations: f.Registrations,
		Preparations:  f.Preparations,
		Checks:        f.Checks,
		Expenses:      f.Expenses,
		Infos:         f.Infos,
		Notices:       f.Notices,
		Geocoder:      f.Geocoder,
		Objects:       f.Objects,
		NewID:         newID,
		MapSize:       routemap.Size{Width: 800, Height: 400},
		ImageMaxBytes: 1 << 20,
	}
	return f
}

// Close 释放所有工作区
func (f *Fixture) Close() {
	f.Registry.Close()
}
