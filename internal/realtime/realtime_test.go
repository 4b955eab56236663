package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripMate/internal/model"
)

func TestHubFiltersByTripAndTable(t *testing.T) {
	hub := NewHub()
	var got []model.ChangeMessage
	unsubscribe := hub.Subscribe(1, model.TableItinerary, func(_ context.Context, msg model.ChangeMessage) {
		got = append(got, msg)
	})

	_ = hub.Publish(context.Background(), NewChange(1, model.TableItinerary, model.OpInsert, 10))
	_ = hub.Publish(context.Background(), NewChange(2, model.TableItinerary, model.OpInsert, 11))
	_ = hub.Publish(context.Background(), NewChange(1, model.TableTickets, model.OpInsert, 12))
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].RecordID)
	assert.NotEmpty(t, got[0].MessageID)

	unsubscribe()
	unsubscribe()
	_ = hub.Publish(context.Background(), NewChange(1, model.TableItinerary, model.OpDelete, 10))
	assert.Len(t, got, 1)
	assert.Equal(t, 0, hub.Subscribers(1, model.TableItinerary))
}

type recordingPublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, key string, body []byte) error {
	p.keys = append(p.keys, key)
	p.bodies = append(p.bodies, body)
	return p.err
}

func TestBroadcasterPublishesLocallyAndRemotely(t *testing.T) {
	hub := NewHub()
	pub := &recordingPublisher{}
	b := NewBroadcaster(hub, pub, "server-a")

	local := 0
	b.Subscribe(7, model.TableExpenses, func(context.Context, model.ChangeMessage) { local++ })

	require.NoError(t, b.Publish(context.Background(), NewChange(7, model.TableExpenses, model.OpUpdate, 3)))
	assert.Equal(t, 1, local)
	assert.Equal(t, []string{"trip.7.expenses"}, pub.keys)

	var sent model.ChangeMessage
	require.NoError(t, json.Unmarshal(pub.bodies[0], &sent))
	assert.Equal(t, "server-a", sent.Origin)
}

func TestBroadcasterLocalDeliveryDespitePublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	b := NewBroadcaster(NewHub(), pub, "server-a")

	local := 0
	b.Subscribe(7, model.TableInfos, func(context.Context, model.ChangeMessage) { local++ })

	err := b.Publish(context.Background(), NewChange(7, model.TableInfos, model.OpInsert, 1))
	assert.Error(t, err)
	assert.Equal(t, 1, local)
}

func TestHandleRemoteSkipsOwnOrigin(t *testing.T) {
	hub := NewHub()
	b := NewBroadcaster(hub, nil, "server-a")

	got := 0
	b.Subscribe(7, model.TableNotices, func(context.Context, model.ChangeMessage) { got++ })

	own, _ := json.Marshal(model.ChangeMessage{Origin: "server-a", TripID: 7, Table: model.TableNotices})
	other, _ := json.Marshal(model.ChangeMessage{Origin: "server-b", TripID: 7, Table: model.TableNotices})

	require.NoError(t, b.HandleRemote(context.Background(), own))
	require.NoError(t, b.HandleRemote(context.Background(), other))
	require.NoError(t, b.HandleRemote(context.Background(), []byte("{not json")))
	assert.Equal(t, 1, got)
}

type fakeTrigger struct {
	channel, event string
	data           interface{}
}

func (f *fakeTrigger) Trigger(channel, event string, data interface{}) error {
	f.channel, f.event, f.data = channel, event, data
	return nil
}

func TestPusherNotifier(t *testing.T) {
	trigger := &fakeTrigger{}
	n := NewPusherNotifier(trigger)

	body, _ := json.Marshal(NewChange(42, model.TableItinerary, model.OpDelete, 9))
	require.NoError(t, n.HandleMessage(context.Background(), body))
	assert.Equal(t, "trip-42", trigger.channel)
	assert.Equal(t, "itinerary.changed", trigger.event)
	assert.Equal(t, "delete", trigger.data.(map[string]interface{})["op"])

	trigger.channel = ""
	require.NoError(t, n.HandleMessage(context.Background(), []byte(`{"table":"itinerary"}`)))
	assert.Empty(t, trigger.channel)
}
