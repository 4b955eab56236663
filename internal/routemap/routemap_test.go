package routemap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripMate/internal/model"
	pkgerrors "TripMate/pkg/errors"
)

func entry(id int64, clock string, title string, lat, lng float64) model.ItineraryEntry {
	e := model.ItineraryEntry{Day: 1, Title: title, Latitude: &lat, Longitude: &lng}
	e.ID = id
	if clock != "" {
		e.Time = &clock
	}
	return e
}

func TestBuildOrdersTimedFirstAndLabelsInOrder(t *testing.T) {
	entries := []model.ItineraryEntry{
		entry(1, "09:00", "A", 35.0, 139.0),
		entry(2, "13:00", "B", 35.1, 139.1),
		entry(3, "", "C", 35.2, 139.2),
		entry(4, "10:30", "D", 35.3, 139.3),
	}

	plan := Build(entries)
	require.Len(t, plan.Stops, 4)

	var titles []string
	for _, s := range plan.Stops {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"A", "D", "B", "C"}, titles)

	require.Len(t, plan.Markers, 4)
	for i, m := range plan.Markers {
		assert.Equal(t, i+1, m.Label)
		assert.Equal(t, plan.Path[i], m.Position)
	}
	assert.Equal(t, LatLng{Lat: 35.3, Lng: 139.3}, plan.Path[1])
}

func TestBuildMergesRepeatedLocationIntoHub(t *testing.T) {
	entries := []model.ItineraryEntry{
		entry(1, "08:00", "Hotel", 35.68950, 139.69171),
		entry(2, "12:00", "Museum", 35.71480, 139.79670),
		entry(3, "20:00", "Hotel again", 35.689501, 139.691711),
	}

	plan := Build(entries)
	require.Len(t, plan.Markers, 2)
	assert.Len(t, plan.Path, 3)

	hotel := plan.Markers[0]
	assert.True(t, hotel.Hub)
	assert.Equal(t, 1, hotel.Label)
	assert.Equal(t, []string{"1. 08:00 Hotel", "3. 20:00 Hotel again"}, hotel.Info())
	assert.False(t, plan.Markers[1].Hub)
}

func TestSignatureIgnoresTitle(t *testing.T) {
	before := Build([]model.ItineraryEntry{entry(1, "09:00", "Hotel", 35.0, 139.0)})
	renamed := Build([]model.ItineraryEntry{entry(1, "09:00", "Hotel Gracery", 35.0, 139.0)})
	assert.Equal(t, before.Signature, renamed.Signature)

	moved := Build([]model.ItineraryEntry{entry(1, "09:00", "Hotel", 35.1, 139.0)})
	assert.NotEqual(t, before.Signature, moved.Signature)
	retimed := Build([]model.ItineraryEntry{entry(1, "10:00", "Hotel", 35.0, 139.0)})
	assert.NotEqual(t, before.Signature, retimed.Signature)
}

func TestBuildSkipsEntriesWithoutCoordinates(t *testing.T) {
	noCoords := model.ItineraryEntry{Day: 1, Title: "Lunch"}
	plan := Build([]model.ItineraryEntry{noCoords})
	assert.True(t, plan.Empty())
	assert.False(t, plan.HasRoute())
	assert.Empty(t, plan.Signature)
}

func TestBuildTreatsUnparsableTimeAsUntimed(t *testing.T) {
	plan := Build([]model.ItineraryEntry{
		entry(1, "later", "X", 1, 1),
		entry(2, "07:00", "Y", 2, 2),
	})
	assert.Equal(t, "Y", plan.Stops[0].Title)
	assert.Equal(t, "X", plan.Stops[1].Title)
}

func TestFitZoom(t *testing.T) {
	size := Size{Width: 800, Height: 400}

	single := Bounds{SouthWest: LatLng{35.6762, 139.6503}, NorthEast: LatLng{35.6762, 139.6503}}
	assert.Equal(t, MaxZoom, FitZoom(single, size, FitPadding))

	wide := Bounds{SouthWest: LatLng{34.6937, 135.5023}, NorthEast: LatLng{35.6762, 139.6503}}
	z := FitZoom(wide, size, FitPadding)
	assert.GreaterOrEqual(t, z, MinZoom)
	assert.Less(t, z, MaxAutoZoom)

	assert.Equal(t, MinZoom, ClampZoom(0))
	assert.Equal(t, MaxZoom, ClampZoom(25))
}

func TestNextOffsetWraps(t *testing.T) {
	assert.Equal(t, 2, NextOffset(0, ArrowStep, ArrowRepeat))
	assert.Equal(t, 0, NextOffset(98, ArrowStep, ArrowRepeat))
	assert.Equal(t, 0, NextOffset(10, 2, 0))
}

func fakeTicks() (tickSource, chan time.Time) {
	ch := make(chan time.Time)
	return func(time.Duration) (<-chan time.Time, func()) {
		return ch, func() {}
	}, ch
}

func TestAnimatorAdvancesAndStops(t *testing.T) {
	src, ch := fakeTicks()
	a := NewAnimator(DefaultArrowStyle())
	a.ticks = src

	frames := make(chan int, 8)
	a.Start(func(offset int) { frames <- offset })
	assert.True(t, a.Running())

	ch <- time.Now()
	ch <- time.Now()
	assert.Equal(t, 2, <-frames)
	assert.Equal(t, 4, <-frames)

	a.Stop()
	a.Stop()
	assert.False(t, a.Running())
}

func TestAnimatorRestartResetsOffset(t *testing.T) {
	src, ch := fakeTicks()
	a := NewAnimator(DefaultArrowStyle())
	a.ticks = src

	frames := make(chan int, 8)
	a.Start(func(offset int) { frames <- offset })
	ch <- time.Now()
	assert.Equal(t, 2, <-frames)

	a.Start(func(offset int) { frames <- offset })
	ch <- time.Now()
	assert.Equal(t, 2, <-frames)
	a.Stop()
}

func canvasLoader(c *Canvas) Loader {
	return func(context.Context) (Surface, error) { return c, nil }
}

func TestSessionShowsSingleMarkerCappedZoom(t *testing.T) {
	canvas := NewCanvas(Size{Width: 800, Height: 400})
	s := NewSession(canvasLoader(canvas), WithAnimator(nil))

	state, err := s.Show(context.Background(), []model.ItineraryEntry{
		entry(1, "10:00", "Tokyo Tower", 35.6586, 139.7454),
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)

	view := canvas.View()
	assert.Len(t, view.Markers, 1)
	assert.Empty(t, view.Path)
	assert.Nil(t, view.Arrow)
	assert.Equal(t, MaxAutoZoom, view.Zoom)
	assert.Equal(t, LatLng{35.6586, 139.7454}, *view.Center)
}

func TestSessionEmptyDay(t *testing.T) {
	canvas := NewCanvas(Size{Width: 800, Height: 400})
	s := NewSession(canvasLoader(canvas), WithAnimator(nil))

	state, err := s.Show(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, state)
	assert.Empty(t, canvas.View().Markers)
}

func TestSessionUnavailable(t *testing.T) {
	s := NewSession(func(context.Context) (Surface, error) {
		return nil, errors.New("missing api key")
	})

	state, err := s.Show(context.Background(), []model.ItineraryEntry{entry(1, "", "A", 1, 1)})
	assert.Equal(t, StateUnavailable, state)
	assert.True(t, errors.Is(err, pkgerrors.GeocodeUnavailable))
}

func TestSessionKeepsUserZoomForSameEntries(t *testing.T) {
	canvas := NewCanvas(Size{Width: 800, Height: 400})
	s := NewSession(canvasLoader(canvas), WithAnimator(nil))
	entries := []model.ItineraryEntry{
		entry(1, "09:00", "A", 35.0, 139.0),
		entry(2, "10:00", "B", 35.5, 139.5),
	}

	_, err := s.Show(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 18, s.SetZoom(18))

	_, err = s.Show(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 18, canvas.View().Zoom)

	assert.Equal(t, MaxZoom, s.SetZoom(40))
	assert.Equal(t, MaxZoom, s.ZoomIn())
	assert.Equal(t, MaxZoom-1, s.ZoomOut())
}

func TestSessionRedrawsOnChange(t *testing.T) {
	src, _ := fakeTicks()
	animator := NewAnimator(DefaultArrowStyle())
	animator.ticks = src

	canvas := NewCanvas(Size{Width: 800, Height: 400})
	s := NewSession(canvasLoader(canvas), WithAnimator(animator))

	_, err := s.Show(context.Background(), []model.ItineraryEntry{
		entry(1, "09:00", "A", 35.0, 139.0),
		entry(2, "10:00", "B", 35.5, 139.5),
	})
	require.NoError(t, err)
	assert.Len(t, canvas.View().Path, 2)
	assert.True(t, animator.Running())

	_, err = s.Show(context.Background(), []model.ItineraryEntry{
		entry(1, "09:00", "A", 35.0, 139.0),
	})
	require.NoError(t, err)
	view := canvas.View()
	assert.Len(t, view.Markers, 1)
	assert.Empty(t, view.Path)
	assert.False(t, animator.Running())

	s.Close()
	assert.Empty(t, canvas.View().Markers)
	assert.Equal(t, StateIdle, s.State())
}
