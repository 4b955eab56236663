package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/realtime"
	pkgerrors "TripMate/pkg/errors"
)

type fixture struct {
	entries *memEntries
	tickets *memList[model.TicketType]
	preps   *memList[model.Preparation]
	expense *memList[model.Expense]
	infos   *memList[model.SharedInfo]
	notices *memList[model.Notice]
	hub     *realtime.Hub
	cfg     Config
}

func newFixture() *fixture {
	f := &fixture{
		entries: &memEntries{},
		tickets: &memList[model.TicketType]{},
		preps:   &memList[model.Preparation]{},
		expense: &memList[model.Expense]{},
		infos:   &memList[model.SharedInfo]{},
		notices: &memList[model.Notice]{},
		hub:     realtime.NewHub(),
	}
	f.cfg = Config{
		Repos: Repositories{
			Trips:        &memTrips{trip: tokyoTrip(1)},
			Itinerary:    f.entries,
			Tickets:      f.tickets,
			Preparations: f.preps,
			Expenses:     f.expense,
			Infos:        f.infos,
			Notices:      f.notices,
		},
		Bus:   f.hub,
		NewID: sequence(),
	}
	return f
}

func TestWorkspaceTokyoScenario(t *testing.T) {
	f := newFixture()
	w := NewWorkspace(1, f.cfg)
	require.NoError(t, w.Open(context.Background()))
	defer w.Close()

	assert.Equal(t, 3, w.Itinerary.Trip().DayCount())

	airport, err := w.Itinerary.Create(context.Background(), dto.CreateEntryRequest{
		Day:     intPtr(1),
		Time:    strp("10:30"),
		Title:   "Airport",
		Geocode: &model.Geocode{LocationName: "Narita", Latitude: 35.772, Longitude: 140.3929},
	})
	require.NoError(t, err)

	ticket := model.TicketType{Name: "Flight", Mode: model.TicketModeIndividual}
	ticket.ID, ticket.TripID = 500, 1
	ticket.LinkedItineraryID = &airport.ID
	f.tickets.set(ticket)
	require.NoError(t, w.Tickets.Refresh(context.Background()))

	enriched := w.Enriched(context.Background())
	require.Len(t, enriched, 1)
	assert.True(t, enriched[0].HasTicket)
	assert.Nil(t, enriched[0].PrepID)

	tickets := w.Tickets.Items()
	assert.Equal(t, "WAITING (0/2)", tickets[0].Badge(2))
}

func TestWorkspaceRefreshesOnRemoteChange(t *testing.T) {
	f := newFixture()
	w := NewWorkspace(1, f.cfg)
	require.NoError(t, w.Open(context.Background()))
	defer w.Close()

	before := f.expense.count()
	exp := model.Expense{Title: "Taxi", Amount: 3200}
	exp.ID, exp.TripID = 9, 1
	f.expense.set(exp)

	_ = f.hub.Publish(context.Background(), realtime.NewChange(1, model.TableExpenses, model.OpInsert, 9))
	require.Eventually(t, func() bool { return len(w.Expenses.Items()) == 1 }, time.Second, 5*time.Millisecond)
	w.Wait()
	assert.Equal(t, before+1, f.expense.count())

	// 其他行程的变更不触发刷新
	_ = f.hub.Publish(context.Background(), realtime.NewChange(2, model.TableExpenses, model.OpInsert, 10))
	w.Wait()
	assert.Equal(t, before+1, f.expense.count())
}

func TestWorkspaceKeepsChangeDuringFirstLoad(t *testing.T) {
	f := newFixture()
	gated := newGatedList[model.Expense]()
	f.cfg.Repos.Expenses = gated
	w := NewWorkspace(1, f.cfg)
	defer w.Close()

	opened := make(chan error, 1)
	go func() { opened <- w.Open(context.Background()) }()

	<-gated.entered
	exp := model.Expense{Title: "Taxi", Amount: 3200}
	exp.ID, exp.TripID = 9, 1
	gated.set(exp)
	require.NoError(t, f.hub.Publish(context.Background(), realtime.NewChange(1, model.TableExpenses, model.OpInsert, 9)))
	close(gated.release)

	require.NoError(t, <-opened)
	w.Wait()
	require.Len(t, w.Expenses.Items(), 1)
	assert.Equal(t, "Taxi", w.Expenses.Items()[0].Title)
}

func TestWorkspaceOpenFailureUnsubscribes(t *testing.T) {
	f := newFixture()
	f.cfg.Repos.Notices = failingList[model.Notice]{}
	w := NewWorkspace(1, f.cfg)
	defer w.Close()

	require.Error(t, w.Open(context.Background()))
	assert.Equal(t, 0, f.hub.Subscribers(1, model.TableNotices))
	assert.Equal(t, 0, f.hub.Subscribers(1, model.TableExpenses))
}

func TestWorkspaceSkipsOwnEcho(t *testing.T) {
	f := newFixture()
	w := NewWorkspace(1, f.cfg)
	require.NoError(t, w.Open(context.Background()))
	defer w.Close()

	before := f.entries.lists
	_, err := w.Itinerary.Create(context.Background(), dto.CreateEntryRequest{Day: intPtr(1), Title: "Hotel"})
	require.NoError(t, err)
	w.Wait()

	// 只有写入后的同步拉取
	assert.Equal(t, before+1, f.entries.lists)
	assert.False(t, w.Loading())
}

func TestWorkspaceCloseUnsubscribes(t *testing.T) {
	f := newFixture()
	w := NewWorkspace(1, f.cfg)
	require.NoError(t, w.Open(context.Background()))
	assert.Equal(t, 1, f.hub.Subscribers(1, model.TableNotices))

	w.Close()
	w.Close()
	assert.Equal(t, 0, f.hub.Subscribers(1, model.TableNotices))
}

func TestRegistryOpensOnceAndSweeps(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.cfg, time.Minute)

	w1, err := r.Get(context.Background(), 1)
	require.NoError(t, err)
	w2, err := r.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, w1, w2)

	_, err = r.Get(context.Background(), 2)
	assert.Equal(t, pkgerrors.TripNotFound, err)
	assert.Equal(t, 1, r.Len())

	assert.Zero(t, r.Sweep(time.Now()))
	assert.Equal(t, 1, r.Sweep(time.Now().Add(2*time.Minute)))
	assert.Zero(t, r.Len())
}
