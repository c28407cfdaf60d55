package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeConn(id string, userID uint, email string) *websocket.Connection {
	return &websocket.Connection{
		ID:       id,
		UserID:   userID,
		Email:    email,
		Send:     make(chan []byte, 16),
		LastPing: time.Now(),
		IsAlive:  true,
	}
}

func TestPublishPersistsAndBroadcasts(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	monitor := fakeConn("conn_monitor", 99, "watcher@example.com")
	hub.Subscribe(monitor, alert.ID)

	reporter := fakeConn("conn_reporter", user.ID, user.Email)
	acc := 12.5
	sample, err := svc.Publish(context.Background(), reporter, PublishInput{
		AlertID:   alert.ID,
		Latitude:  37.77491234,
		Longitude: -122.41941234,
		Accuracy:  &acc,
	})
	require.NoError(t, err)

	// coordinates stored at 6-decimal precision
	assert.InDelta(t, 37.774912, sample.Latitude, 1e-9)
	assert.InDelta(t, -122.419412, sample.Longitude, 1e-9)

	var persisted models.LocationSample
	require.NoError(t, db.First(&persisted, sample.ID).Error)
	assert.Equal(t, alert.ID, persisted.AlertID)

	select {
	case frame := <-monitor.Send:
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.JSONEq(t, `"location_update"`, string(msg["type"]))
	case <-time.After(time.Second):
		t.Fatal("monitor never received the broadcast")
	}
}

func TestPublishRejectsNonOwner(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	stranger := fakeConn("conn_stranger", user.ID+1, "other@example.com")
	_, err := svc.Publish(context.Background(), stranger, PublishInput{
		AlertID:  alert.ID,
		Latitude: 1, Longitude: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))

	var count int64
	require.NoError(t, db.Model(&models.LocationSample{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPublishUnknownAlert(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)
	user := createUser(t, db, "alice")

	conn := fakeConn("conn_reporter", user.ID, user.Email)
	_, err := svc.Publish(context.Background(), conn, PublishInput{
		AlertID:  "00000000-0000-0000-0000-000000000000",
		Latitude: 1, Longitude: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestPublishTerminalAlert(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusCancelled)

	conn := fakeConn("conn_reporter", user.ID, user.Email)
	_, err := svc.Publish(context.Background(), conn, PublishInput{
		AlertID:  alert.ID,
		Latitude: 1, Longitude: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidTransition(err))
}

func TestPublishValidatesCoordinates(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)
	conn := fakeConn("conn_reporter", user.ID, user.Email)

	for _, in := range []PublishInput{
		{AlertID: alert.ID, Latitude: 90.1, Longitude: 0},
		{AlertID: alert.ID, Latitude: -90.1, Longitude: 0},
		{AlertID: alert.ID, Latitude: 0, Longitude: 180.5},
		{AlertID: alert.ID, Latitude: 0, Longitude: -180.5},
	} {
		_, err := svc.Publish(context.Background(), conn, in)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	}
}

func TestPublishEvaluatesSafeZones(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	zone := &models.SafeZone{
		UserID:   user.ID,
		Name:     "Home",
		Latitude: 37.7749, Longitude: -122.4194,
		Radius:   500,
		IsActive: true,
	}
	require.NoError(t, db.Create(zone).Error)
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)
	conn := fakeConn("conn_reporter", user.ID, user.Email)

	inside, err := svc.Publish(context.Background(), conn, PublishInput{
		AlertID:  alert.ID,
		Latitude: 37.7749, Longitude: -122.4194,
	})
	require.NoError(t, err)
	assert.True(t, inside.InSafeZone)
	require.NotNil(t, inside.NearestZoneID)
	assert.Equal(t, zone.ID, *inside.NearestZoneID)

	// ~11 km away, well outside but the nearest zone is still tracked
	outside, err := svc.Publish(context.Background(), conn, PublishInput{
		AlertID:  alert.ID,
		Latitude: 37.8749, Longitude: -122.4194,
	})
	require.NoError(t, err)
	assert.False(t, outside.InSafeZone)
	require.NotNil(t, outside.NearestZoneID)
	assert.Equal(t, zone.ID, *outside.NearestZoneID)
}

func TestSubscribeAuthorization(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	contact := createContact(t, db, user.ID, "Primary", 1)
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	owner := fakeConn("conn_owner", user.ID, user.Email)
	got, gotOwner, _, err := svc.Subscribe(context.Background(), owner, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, got.ID)
	assert.Equal(t, user.ID, gotOwner.ID)
	assert.Equal(t, 1, hub.SubscriberCount(alert.ID))

	monitor := fakeConn("conn_contact", 777, contact.Email)
	_, _, _, err = svc.Subscribe(context.Background(), monitor, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.SubscriberCount(alert.ID))

	stranger := fakeConn("conn_stranger", 888, "nobody@example.com")
	_, _, _, err = svc.Subscribe(context.Background(), stranger, alert.ID)
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
	assert.Equal(t, 2, hub.SubscriberCount(alert.ID))
}

func TestSubscribeReturnsLatestSample(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)
	reporter := fakeConn("conn_reporter", user.ID, user.Email)

	// before any sample
	_, _, latest, err := svc.Subscribe(context.Background(), reporter, alert.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = svc.Publish(context.Background(), reporter, PublishInput{
		AlertID:  alert.ID,
		Latitude: 10, Longitude: 20,
	})
	require.NoError(t, err)
	want, err := svc.Publish(context.Background(), reporter, PublishInput{
		AlertID:  alert.ID,
		Latitude: 11, Longitude: 21,
	})
	require.NoError(t, err)

	monitor := fakeConn("conn_owner2", user.ID, user.Email)
	_, _, latest, err = svc.Subscribe(context.Background(), monitor, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, want.Latitude, latest.Latitude)
	assert.Equal(t, want.Longitude, latest.Longitude)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	db := newTestDB(t)
	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	svc := NewStreamService(db, hub, NewAuditor(db), nil)

	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	conn := fakeConn("conn_owner", user.ID, user.Email)
	_, _, _, err := svc.Subscribe(context.Background(), conn, alert.ID)
	require.NoError(t, err)

	svc.Unsubscribe(conn, alert.ID)
	assert.Zero(t, hub.SubscriberCount(alert.ID))
	svc.Unsubscribe(conn, alert.ID) // no-op
	assert.Zero(t, hub.SubscriberCount(alert.ID))
}
