package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripMate/internal/imagepos"
	"TripMate/internal/model"
	"TripMate/internal/model/dto"
	pkgerrors "TripMate/pkg/errors"
)

func newTestStore(t *testing.T) (*ItineraryStore, *memEntries, *changeLog) {
	t.Helper()
	repo := &memEntries{}
	changes := &changeLog{}
	s := NewItineraryStore(1, ItineraryConfig{
		Repo:    repo,
		Trips:   &memTrips{trip: tokyoTrip(1)},
		NewID:   sequence(),
		Changed: changes.record,
	})
	return s, repo, changes
}

func intPtr(v int) *int     { return &v }
func strp(v string) *string { return &v }

func TestCreateValidatesBeforePersisting(t *testing.T) {
	s, repo, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(1), Title: "   "})
	assert.Equal(t, pkgerrors.TitleRequired, err)

	_, err = s.Create(ctx, dto.CreateEntryRequest{Title: "Airport"})
	assert.Equal(t, pkgerrors.DayRequired, err)

	_, err = s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(4), Title: "Airport"})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(1), Title: "Airport", Time: strp("10:3")})
	assert.Equal(t, pkgerrors.InvalidTime, err)

	_, err = s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(1), Title: "Airport", Geocode: &model.Geocode{Latitude: 91}})
	assert.Equal(t, pkgerrors.InvalidCoordinates, err)

	assert.Zero(t, repo.creates)
}

func TestCreateRefetchesAndPublishes(t *testing.T) {
	s, _, changes := newTestStore(t)

	entry, err := s.Create(context.Background(), dto.CreateEntryRequest{
		Day:     intPtr(1),
		Time:    strp("10:30"),
		Title:   "Airport",
		Geocode: &model.Geocode{LocationName: "Haneda", Latitude: 35.5494, Longitude: 139.7798},
	})
	require.NoError(t, err)

	assert.False(t, entry.IsChecked)
	assert.Equal(t, model.ImageScaleDefault, entry.ImageScale)
	assert.True(t, entry.HasCoordinates())
	assert.Len(t, s.Day(1), 1)
	assert.Equal(t, []string{"itinerary:insert"}, changes.msgs)
}

func TestCreatePersistenceFailureKeepsSnapshot(t *testing.T) {
	s, repo, changes := newTestStore(t)
	_, err := s.Create(context.Background(), dto.CreateEntryRequest{Day: intPtr(1), Title: "Kept"})
	require.NoError(t, err)

	repo.createErr = errDown
	_, err = s.Create(context.Background(), dto.CreateEntryRequest{Day: intPtr(2), Title: "Lost"})
	assert.True(t, pkgerrors.IsPersistence(err))
	assert.ErrorIs(t, err, errDown)

	require.Len(t, s.Entries(), 1)
	assert.Equal(t, "Kept", s.Entries()[0].Title)
	assert.Len(t, changes.msgs, 1)
}

func TestUpdateGeocodeTriState(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	entry, err := s.Create(ctx, dto.CreateEntryRequest{
		Day:     intPtr(1),
		Title:   "Tower",
		Geocode: &model.Geocode{LocationName: "Tokyo Tower", Address: "Minato", Latitude: 35.6586, Longitude: 139.7454},
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, entry.ID, dto.UpdateEntryRequest{Title: model.Some("Tower at night")})
	require.NoError(t, err)
	assert.Equal(t, "Tower at night", updated.Title)
	assert.True(t, updated.HasCoordinates())

	updated, err = s.Update(ctx, entry.ID, dto.UpdateEntryRequest{
		Geocode: model.Some(model.Geocode{LocationName: "Skytree", Latitude: 35.7101, Longitude: 139.8107}),
	})
	require.NoError(t, err)
	assert.Equal(t, "Skytree", *updated.LocationName)
	assert.Equal(t, "", *updated.Address)

	updated, err = s.Update(ctx, entry.ID, dto.UpdateEntryRequest{Geocode: model.Null[model.Geocode]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Geocode())
	assert.Nil(t, updated.LocationName)
	assert.Nil(t, updated.Address)
}

func TestUpdateRejectsNullTitleAndDay(t *testing.T) {
	s, _, _ := newTestStore(t)
	entry, err := s.Create(context.Background(), dto.CreateEntryRequest{Day: intPtr(1), Title: "A"})
	require.NoError(t, err)

	_, err = s.Update(context.Background(), entry.ID, dto.UpdateEntryRequest{Title: model.Null[string]()})
	assert.Equal(t, pkgerrors.TitleRequired, err)

	_, err = s.Update(context.Background(), entry.ID, dto.UpdateEntryRequest{Day: model.Null[int]()})
	assert.Equal(t, pkgerrors.DayRequired, err)

	_, err = s.Update(context.Background(), 999, dto.UpdateEntryRequest{Title: model.Some("x")})
	assert.Equal(t, pkgerrors.EntryNotFound, err)
}

func TestUpdateImageScaleClamps(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	entry, err := s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(1), Title: "Cafe", Image: strp("https://img/cafe.jpg")})
	require.NoError(t, err)

	updated, err := s.Update(ctx, entry.ID, dto.UpdateEntryRequest{ImageScale: model.Some(0)})
	require.NoError(t, err)
	assert.Equal(t, model.ImageScaleMin, updated.ImageScale)

	updated, err = s.Update(ctx, entry.ID, dto.UpdateEntryRequest{ImageScale: model.Null[int]()})
	require.NoError(t, err)
	assert.Equal(t, model.ImageScaleDefault, updated.ImageScale)

	updated, err = s.Update(ctx, entry.ID, dto.UpdateEntryRequest{ImageScale: model.Some(5000)})
	require.NoError(t, err)
	assert.Equal(t, model.ImageScaleMax, updated.ImageScale)
}

func TestRemoveImageResetsPlacement(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	entry, err := s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(1), Title: "Cafe", Image: strp("https://img/cafe.jpg")})
	require.NoError(t, err)

	_, err = s.SetImagePlacement(ctx, entry.ID, imagepos.Placement{X: 225, Y: 65, Scale: 900})
	require.NoError(t, err)

	updated, err := s.Update(ctx, entry.ID, dto.UpdateEntryRequest{
		Image:          model.Null[string](),
		ImagePositionX: model.Some(100.0),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	assert.Equal(t, imagepos.Default(), imagepos.Of(updated))
}

func TestToggleCheckAndRemove(t *testing.T) {
	s, _, changes := newTestStore(t)
	ctx := context.Background()
	entry, err := s.Create(ctx, dto.CreateEntryRequest{Day: intPtr(2), Title: "Museum"})
	require.NoError(t, err)

	checked, err := s.ToggleCheck(ctx, entry.ID, true)
	require.NoError(t, err)
	assert.True(t, checked.IsChecked)

	require.NoError(t, s.Remove(ctx, entry.ID))
	assert.Empty(t, s.Entries())
	assert.Equal(t, pkgerrors.EntryNotFound, s.Remove(ctx, entry.ID))
	assert.Equal(t, []string{"itinerary:insert", "itinerary:update", "itinerary:delete"}, changes.msgs)
}
