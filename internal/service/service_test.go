package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	"TripMate/internal/routemap"
	"TripMate/internal/service"
	"TripMate/internal/testutil"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/geocode"
)

const tripID = int64(1)

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	f   *testutil.Fixture
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = testutil.NewFixture(testutil.TokyoTrip(tripID))
	service.Init(s.f.Deps)
}

func (s *ServiceSuite) TearDownTest() {
	s.f.Close()
}

func ptr[T any](v T) *T {
	return &v
}

func (s *ServiceSuite) createAirport() *dto.EnrichedEntry {
	entry, err := service.Itinerary().Create(s.ctx, tripID, dto.CreateEntryRequest{
		Day:   ptr(1),
		Time:  ptr("10:30"),
		Title: "Airport",
		Geocode: &model.Geocode{
			LocationName: "Haneda Airport",
			Address:      "Ota City, Tokyo",
			Latitude:     35.5494,
			Longitude:    139.7798,
		},
	})
	s.Require().NoError(err)
	return entry
}

func (s *ServiceSuite) TestTokyoScenario() {
	airport := s.createAirport()

	ticket, err := service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{
		Name:              model.Some("Flight"),
		Mode:              model.Some("individual"),
		LinkedItineraryID: model.Some(airport.ID),
	})
	s.Require().NoError(err)
	s.Equal("WAITING (0/2)", ticket.Badge)
	s.Require().NotNil(ticket.LinkedEntryName)
	s.Equal("Airport", *ticket.LinkedEntryName)

	days, loading, err := service.Itinerary().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.False(loading)
	s.Require().Len(days, 3)
	s.Equal("2024-05-20", days[0].Date)
	s.Require().Len(days[0].Entries, 1)
	s.True(days[0].Entries[0].HasTicket)
	s.Empty(days[1].Entries)

	view, err := service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{})
	s.Require().NoError(err)
	s.Equal(routemap.StateReady, view.State)
	s.Require().Len(view.Markers, 1)
	s.Equal(1, view.Markers[0].Label)
	s.Equal(routemap.MaxAutoZoom, view.Zoom)
	s.Nil(view.Arrow)
}

func (s *ServiceSuite) TestDayMapZoomControls() {
	s.createAirport()

	view, err := service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{Zoom: ptr(25)})
	s.Require().NoError(err)
	s.Equal(routemap.MaxZoom, view.Zoom)

	view, err = service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{Zoom: ptr(1)})
	s.Require().NoError(err)
	s.Equal(routemap.MinZoom, view.Zoom)

	view, err = service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{Zoom: ptr(10), Steps: -2})
	s.Require().NoError(err)
	s.Equal(8, view.Zoom)

	view, err = service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{Steps: 1})
	s.Require().NoError(err)
	s.Equal(routemap.MaxAutoZoom+1, view.Zoom)

	// 当天没有坐标时忽略缩放
	view, err = service.Itinerary().DayMap(s.ctx, tripID, 2, dto.MapControls{Zoom: ptr(12)})
	s.Require().NoError(err)
	s.Equal(routemap.StateEmpty, view.State)
}

func (s *ServiceSuite) TestDayMapEmptyAndUnavailable() {
	view, err := service.Itinerary().DayMap(s.ctx, tripID, 2, dto.MapControls{})
	s.Require().NoError(err)
	s.Equal(routemap.StateEmpty, view.State)
	s.Empty(view.Markers)

	_, err = service.Itinerary().DayMap(s.ctx, tripID, 4, dto.MapControls{})
	def, ok := pkgerrors.As(err)
	s.Require().True(ok)
	s.Equal(pkgerrors.DayOutOfRange.Code, def.Code)

	deps := s.f.Deps
	deps.Geocoder = geocode.Unavailable()
	service.Init(deps)
	_, err = service.Itinerary().DayMap(s.ctx, tripID, 1, dto.MapControls{})
	def, ok = pkgerrors.As(err)
	s.Require().True(ok)
	s.Equal(pkgerrors.GeocodeUnavailable.Code, def.Code)
}

func (s *ServiceSuite) TestUnknownTrip() {
	_, _, err := service.Itinerary().List(s.ctx, 99)
	def, ok := pkgerrors.As(err)
	s.Require().True(ok)
	s.Equal(pkgerrors.TripNotFound.Code, def.Code)

	_, err = service.Trips().Get(s.ctx, 99)
	s.ErrorIs(err, pkgerrors.TripNotFound)
}

func (s *ServiceSuite) TestRegistrationKeys() {
	ticket, err := service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{Name: model.Some("JR Pass")})
	s.Require().NoError(err)

	_, err = service.Tickets().Register(s.ctx, tripID, ticket.ID, "99", 11, dto.RegistrationRequest{Type: "QR", Code: "x"})
	s.ErrorIs(err, pkgerrors.InvalidRegistrationKey)

	_, err = service.Tickets().Register(s.ctx, tripID, ticket.ID, "11", 11, dto.RegistrationRequest{Type: "Fax"})
	s.ErrorIs(err, pkgerrors.InvalidRegistrationType)

	view, err := service.Tickets().Register(s.ctx, tripID, ticket.ID, "11", 11, dto.RegistrationRequest{Type: "QR", Code: "abc"})
	s.Require().NoError(err)
	s.Equal("WAITING (1/2)", view.Badge)

	// 同一 key 再次登记覆盖
	view, err = service.Tickets().Register(s.ctx, tripID, ticket.ID, "11", 11, dto.RegistrationRequest{Type: "Barcode", Code: "def"})
	s.Require().NoError(err)
	s.Require().Len(view.Registrations, 1)
	s.Equal(model.RegistrationBarcode, view.Registrations[0].Type)

	view, err = service.Tickets().Register(s.ctx, tripID, ticket.ID, "12", 12, dto.RegistrationRequest{Type: "URL", Code: "https://example.com"})
	s.Require().NoError(err)
	s.Equal("COMPLETE", view.Badge)
	s.True(view.Complete)

	view, err = service.Tickets().Unregister(s.ctx, tripID, ticket.ID, "12")
	s.Require().NoError(err)
	s.Equal("WAITING (1/2)", view.Badge)

	group, err := service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{Name: model.Some("Museum"), Mode: model.Some("group")})
	s.Require().NoError(err)
	_, err = service.Tickets().Register(s.ctx, tripID, group.ID, "11", 11, dto.RegistrationRequest{Type: "QR"})
	s.ErrorIs(err, pkgerrors.InvalidRegistrationKey)
	view, err = service.Tickets().Register(s.ctx, tripID, group.ID, "all", 11, dto.RegistrationRequest{Type: "QR"})
	s.Require().NoError(err)
	s.Equal("COMPLETE", view.Badge)

	_, err = service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{Name: model.Some("Bus"), Mode: model.Some("family")})
	s.ErrorIs(err, pkgerrors.InvalidTicketMode)
}

func (s *ServiceSuite) TestPersonalPreparationChecks() {
	common, err := service.Preparations().Create(s.ctx, tripID, 11, dto.PreparationRequest{Content: model.Some("Power adapter")})
	s.Require().NoError(err)
	personal, err := service.Preparations().Create(s.ctx, tripID, 11, dto.PreparationRequest{
		Content: model.Some("Passport"),
		Type:    model.Some("personal"),
	})
	s.Require().NoError(err)

	_, err = service.Preparations().Check(s.ctx, tripID, 11, personal.ID, true)
	s.Require().NoError(err)
	_, err = service.Preparations().Check(s.ctx, tripID, 12, common.ID, true)
	s.Require().NoError(err)

	mine, err := service.Preparations().List(s.ctx, tripID, 11)
	s.Require().NoError(err)
	theirs, err := service.Preparations().List(s.ctx, tripID, 12)
	s.Require().NoError(err)

	s.Require().Len(mine, 2)
	s.True(mine[0].CheckedByMe, "common item is shared")
	s.True(mine[1].CheckedByMe)
	s.True(theirs[0].CheckedByMe)
	s.False(theirs[1].CheckedByMe, "personal check belongs to participant 11 only")

	_, err = service.Preparations().Check(s.ctx, tripID, 0, personal.ID, true)
	s.ErrorIs(err, pkgerrors.ParticipantRequired)

	_, err = service.Preparations().Create(s.ctx, tripID, 11, dto.PreparationRequest{
		Content: model.Some("Umbrella"),
		Type:    model.Some("shared"),
	})
	s.ErrorIs(err, pkgerrors.InvalidPreparationType)
}

func (s *ServiceSuite) TestExpensesAndSummary() {
	_, err := service.Expenses().Create(s.ctx, tripID, dto.ExpenseRequest{Title: model.Some("Refund"), Amount: model.Some(int64(-1))})
	s.ErrorIs(err, pkgerrors.NegativeAmount)
	s.Empty(s.f.Expenses.Rows(), "validation happens before persistence")

	for _, e := range []dto.ExpenseRequest{
		{Title: model.Some("Sushi"), Amount: model.Some(int64(42000)), Payer: model.Some("Minji"), Category: model.Some("Food")},
		{Title: model.Some("Suica"), Amount: model.Some(int64(20000)), Payer: model.Some("Jisoo"), Category: model.Some("Transport")},
		{Title: model.Some("Ramen"), Amount: model.Some(int64(18000)), Payer: model.Some("Jisoo"), Category: model.Some("Food")},
	} {
		_, err := service.Expenses().Create(s.ctx, tripID, e)
		s.Require().NoError(err)
	}

	sum, err := service.Expenses().Summary(s.ctx, tripID)
	s.Require().NoError(err)
	s.Equal(int64(80000), sum.Total)
	s.Equal(3, sum.Count)
	s.Equal(int64(38000), sum.ByPayer["Jisoo"])
	s.Equal(int64(60000), sum.ByCategory["Food"])
}

func (s *ServiceSuite) TestRemovedEntryLeavesDanglingLinks() {
	airport := s.createAirport()

	info, err := service.Infos().Create(s.ctx, tripID, dto.InfoRequest{
		Title:             model.Some("Arrival tips"),
		LinkedItineraryID: model.Some(airport.ID),
	})
	s.Require().NoError(err)
	s.Equal("Info", info.Category)
	s.Require().NotNil(info.LinkedEntryName)

	s.Require().NoError(service.Itinerary().Remove(s.ctx, tripID, airport.ID))

	infos, err := service.Infos().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.Require().Len(infos, 1)
	s.Nil(infos[0].LinkedEntryName)
	s.Require().NotNil(infos[0].LinkedItineraryID, "removal does not cascade")

	name, err := service.Itinerary().LinkedName(s.ctx, tripID, airport.ID)
	s.Require().NoError(err)
	s.Nil(name.Title)

	total, err := service.Audit().Run(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, total)
}

func (s *ServiceSuite) TestImageUploadAndPlacement() {
	airport := s.createAirport()

	_, err := service.Itinerary().UploadImage(s.ctx, tripID, airport.ID, "a.txt", "text/plain", 3, strings.NewReader("abc"))
	s.Require().Error(err)
	s.True(pkgerrors.IsValidation(err))

	entry, err := service.Itinerary().UploadImage(s.ctx, tripID, airport.ID, "haneda.jpg", "image/jpeg", 4, strings.NewReader("jpeg"))
	s.Require().NoError(err)
	s.Require().NotNil(entry.Image)
	s.True(strings.HasPrefix(*entry.Image, "https://mock-storage.local/trips/1/entries/"))
	s.Require().NotNil(entry.ImageStyle)
	s.Equal("0% 0%", entry.ImageStyle.BackgroundPosition)
	s.Equal("400px", entry.ImageStyle.BackgroundSize)

	entry, err = service.Itinerary().AdjustImage(s.ctx, tripID, airport.ID, dto.ImagePlacementRequest{
		Drag: &dto.DragSample{
			PointerX: 150,
			PointerY: 75,
			Box:      dto.Box{Left: 100, Top: 50, Width: 200, Height: 100},
		},
		WheelDeltas: []float64{-120, -120},
		ZoomSteps:   -1,
	})
	s.Require().NoError(err)
	s.Equal(112.5, entry.ImagePositionX)
	s.Equal(32.5, entry.ImagePositionY)
	s.Equal(450, entry.ImageScale)
	s.Equal("25% 25%", entry.ImageStyle.BackgroundPosition)

	entry, err = service.Itinerary().RemoveImage(s.ctx, tripID, airport.ID)
	s.Require().NoError(err)
	s.Nil(entry.Image)
	s.Nil(entry.ImageStyle)
	s.Equal(0.0, entry.ImagePositionX)
	s.Equal(400, entry.ImageScale)
}

func (s *ServiceSuite) TestNoticesNewestFirst() {
	for _, content := range []string{"first", "second"} {
		_, err := service.Notices().Create(s.ctx, tripID, dto.NoticeRequest{Content: content, Author: "Minji"})
		s.Require().NoError(err)
	}
	notices, err := service.Notices().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.Require().Len(notices, 2)
	s.Equal("second", notices[0].Content)
}

func (s *ServiceSuite) TestAddParticipantUpdatesBadge() {
	ticket, err := service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{Name: model.Some("Flight")})
	s.Require().NoError(err)
	s.Equal("WAITING (0/2)", ticket.Badge)

	p, err := service.Trips().AddParticipant(s.ctx, tripID, dto.AddParticipantRequest{Name: "Yuna"})
	s.Require().NoError(err)
	s.Equal(2, p.Position)

	tickets, err := service.Tickets().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.Equal("WAITING (0/3)", tickets[0].Badge)
}

func (s *ServiceSuite) TestPlaceSearch() {
	s.f.Geocoder.Add("Tokyo Tower", geocode.Place{Name: "Tokyo Tower", Lat: 35.6586, Lng: 139.7454, PlaceID: "tt"})

	places, err := service.Places().Search(s.ctx, " tokyo tower ")
	s.Require().NoError(err)
	s.Require().Len(places, 1)
	s.Equal("tt", places[0].PlaceID)

	_, err = service.Places().Search(s.ctx, "   ")
	s.True(pkgerrors.IsValidation(err))

	s.f.Geocoder.FailNext = true
	_, err = service.Places().Search(s.ctx, "tokyo tower")
	s.ErrorIs(err, pkgerrors.GeocodeUnavailable)
}

func (s *ServiceSuite) TestDeleteTicketKeepsItWhenRegistrationsFail() {
	ticket, err := service.Tickets().Create(s.ctx, tripID, dto.TicketRequest{Name: model.Some("Flight")})
	s.Require().NoError(err)
	_, err = service.Tickets().Register(s.ctx, tripID, ticket.ID, "11", 11, dto.RegistrationRequest{Type: "QR", Code: "abc"})
	s.Require().NoError(err)

	s.f.Registrations.DeleteErr = errors.New("connection reset")
	err = service.Tickets().Delete(s.ctx, tripID, ticket.ID)
	s.ErrorIs(err, pkgerrors.PersistenceFailed)

	tickets, err := service.Tickets().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.Require().Len(tickets, 1)
	s.Equal("WAITING (1/2)", tickets[0].Badge)

	s.f.Registrations.DeleteErr = nil
	s.Require().NoError(service.Tickets().Delete(s.ctx, tripID, ticket.ID))
	s.Empty(s.f.Registrations.For(ticket.ID))
	tickets, err = service.Tickets().List(s.ctx, tripID)
	s.Require().NoError(err)
	s.Empty(tickets)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func TestCreateTrip(t *testing.T) {
	f := testutil.NewFixture()
	defer f.Close()
	service.Init(f.Deps)
	ctx := context.Background()

	_, err := service.Trips().Create(ctx, dto.CreateTripRequest{Title: "Jeju", StartDate: "2024-06-03", EndDate: "2024-06-01"})
	assert.ErrorIs(t, err, pkgerrors.InvalidDateRange)

	_, err = service.Trips().Create(ctx, dto.CreateTripRequest{Title: "Jeju", StartDate: "June", EndDate: "2024-06-01"})
	assert.ErrorIs(t, err, pkgerrors.InvalidDateRange)

	trip, err := service.Trips().Create(ctx, dto.CreateTripRequest{
		Title:        "Jeju",
		StartDate:    "2024-06-01",
		EndDate:      "2024-06-03",
		Participants: []string{"Minji", "Jisoo"},
	})
	require.NoError(t, err)
	assert.Len(t, trip.Days, 3)
	assert.Equal(t, "2024-06-03", trip.Days[2].Date)
	require.Len(t, trip.Participants, 2)
	assert.Equal(t, 1, trip.Participants[1].Position)

	got, err := service.Trips().Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jeju", got.Title)
}

func TestSummarize(t *testing.T) {
	sum := service.Summarize(nil)
	assert.Equal(t, int64(0), sum.Total)
	assert.NotNil(t, sum.ByPayer)
}

func TestLinkMustTargetEntryOfSameTrip(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(testutil.TokyoTrip(1), testutil.TokyoTrip(2))
	defer f.Close()
	service.Init(f.Deps)

	own, err := service.Itinerary().Create(ctx, 1, dto.CreateEntryRequest{Day: ptr(1), Title: "Airport"})
	require.NoError(t, err)
	other, err := service.Itinerary().Create(ctx, 2, dto.CreateEntryRequest{Day: ptr(1), Title: "Shinjuku"})
	require.NoError(t, err)

	for _, target := range []int64{other.ID, 987654} {
		link := model.Some(target)

		_, err = service.Tickets().Create(ctx, 1, dto.TicketRequest{Name: model.Some("Flight"), LinkedItineraryID: link})
		assert.ErrorIs(t, err, pkgerrors.InvalidLink)
		_, err = service.Preparations().Create(ctx, 1, 11, dto.PreparationRequest{Content: model.Some("Adapter"), LinkedItineraryID: link})
		assert.ErrorIs(t, err, pkgerrors.InvalidLink)
		_, err = service.Expenses().Create(ctx, 1, dto.ExpenseRequest{Title: model.Some("Taxi"), Amount: model.Some(int64(3200)), LinkedItineraryID: link})
		assert.ErrorIs(t, err, pkgerrors.InvalidLink)
		_, err = service.Infos().Create(ctx, 1, dto.InfoRequest{Title: model.Some("Tips"), LinkedItineraryID: link})
		assert.ErrorIs(t, err, pkgerrors.InvalidLink)
		assert.True(t, pkgerrors.IsValidation(err))
	}
	assert.Empty(t, f.Tickets.Rows())
	assert.Empty(t, f.Preparations.Rows())
	assert.Empty(t, f.Expenses.Rows())
	assert.Empty(t, f.Infos.Rows())

	info, err := service.Infos().Create(ctx, 1, dto.InfoRequest{Title: model.Some("Tips"), LinkedItineraryID: model.Some(own.ID)})
	require.NoError(t, err)
	_, err = service.Infos().Update(ctx, 1, info.ID, dto.InfoRequest{LinkedItineraryID: model.Some(other.ID)})
	assert.ErrorIs(t, err, pkgerrors.InvalidLink)

	// 显式 null 仍然可以解除关联
	info, err = service.Infos().Update(ctx, 1, info.ID, dto.InfoRequest{LinkedItineraryID: model.Null[int64]()})
	require.NoError(t, err)
	assert.Nil(t, info.LinkedItineraryID)
}
