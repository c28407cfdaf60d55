package service

import (
	"context"
	"testing"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchNotifiesContactsInPriorityOrder(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewDispatchService(db, NewAuditor(db), notifier, "https://safesignal.example.com")
	user := createUser(t, db, "alice")
	createContact(t, db, user.ID, "Backup", 2)
	createContact(t, db, user.ID, "Primary", 1)
	alert := createAlert(t, db, user.ID, models.AlertStatusPendingCancel)

	result, err := svc.Dispatch(context.Background(), alert)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ContactsNotified)
	require.Len(t, result.Records, 4) // SMS + EMAIL per contact

	sent := notifier.sent()
	require.Len(t, sent, 4)
	// priority 1 before priority 2, SMS before email per contact
	assert.Equal(t, notification.ChannelSMS, sent[0].Channel)
	assert.Equal(t, notification.ChannelEmail, sent[1].Channel)
	assert.Equal(t, "primary@example.com", sent[1].Recipient)
	assert.Equal(t, "backup@example.com", sent[3].Recipient)

	assert.Equal(t, models.AlertStatusDispatched, alert.Status)
	assert.NotNil(t, alert.DispatchedAt)
	assert.Equal(t, 2, alert.ContactsNotified)

	var persisted []models.DispatchRecord
	require.NoError(t, db.Where("alert_id = ?", alert.ID).Find(&persisted).Error)
	assert.Len(t, persisted, 4)
	for _, r := range persisted {
		assert.Equal(t, models.DispatchStatusSent, r.Status)
		assert.NotNil(t, r.SentAt)
	}
}

func TestDispatchWithoutContactsFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewDispatchService(db, NewAuditor(db), &fakeNotifier{}, "")
	user := createUser(t, db, "alice")
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	_, err := svc.Dispatch(context.Background(), alert)
	require.Error(t, err)
	assert.True(t, errors.IsNoContacts(err))
	assert.Equal(t, models.AlertStatusTriggered, alert.Status)
}

func TestDispatchIgnoresInactiveContacts(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewDispatchService(db, NewAuditor(db), notifier, "")
	user := createUser(t, db, "alice")
	contact := createContact(t, db, user.ID, "Former", 1)
	require.NoError(t, db.Model(contact).Update("is_active", false).Error)
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	_, err := svc.Dispatch(context.Background(), alert)
	require.Error(t, err)
	assert.True(t, errors.IsNoContacts(err))
	assert.Empty(t, notifier.sent())
}

func TestDispatchRecordsFailureAndContinues(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{failChannel: notification.ChannelSMS}
	svc := NewDispatchService(db, NewAuditor(db), notifier, "")
	user := createUser(t, db, "alice")
	createContact(t, db, user.ID, "Primary", 1)
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	result, err := svc.Dispatch(context.Background(), alert)
	require.NoError(t, err)

	// SMS failed, email went through, dispatch still completed
	assert.Equal(t, models.AlertStatusDispatched, alert.Status)
	require.Len(t, result.Records, 2)
	assert.Equal(t, models.DispatchStatusFailed, result.Records[0].Status)
	assert.NotEmpty(t, result.Records[0].ErrorDetail)
	assert.Nil(t, result.Records[0].SentAt)
	assert.Equal(t, models.DispatchStatusSent, result.Records[1].Status)
}

func TestDispatchInvalidState(t *testing.T) {
	db := newTestDB(t)
	svc := NewDispatchService(db, NewAuditor(db), &fakeNotifier{}, "")
	user := createUser(t, db, "alice")
	createContact(t, db, user.ID, "Primary", 1)

	for _, status := range []string{
		models.AlertStatusCancelled,
		models.AlertStatusDispatched,
		models.AlertStatusResolved,
		models.AlertStatusTimeout,
	} {
		alert := createAlert(t, db, user.ID, status)
		_, err := svc.Dispatch(context.Background(), alert)
		require.Error(t, err, status)
		assert.True(t, errors.IsInvalidTransition(err), status)
	}
}

func TestDispatchDefaultsToSimulatedDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := NewDispatchService(db, NewAuditor(db), nil, "")
	user := createUser(t, db, "alice")
	createContact(t, db, user.ID, "Primary", 1)
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)

	result, err := svc.Dispatch(context.Background(), alert)
	require.NoError(t, err)
	for _, r := range result.Records {
		assert.Equal(t, models.DispatchStatusSimulated, r.Status)
	}
}

func TestDispatchMessageContent(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewDispatchService(db, NewAuditor(db), notifier, "https://safesignal.example.com")
	user := createUser(t, db, "alice")
	createContact(t, db, user.ID, "Primary", 1)
	lat, lon := 37.7749, -122.4194
	alert := createAlert(t, db, user.ID, models.AlertStatusTriggered)
	require.NoError(t, db.Model(alert).Updates(map[string]interface{}{
		"initial_latitude":  lat,
		"initial_longitude": lon,
	}).Error)
	alert.InitialLatitude = &lat
	alert.InitialLongitude = &lon

	_, err := svc.Dispatch(context.Background(), alert)
	require.NoError(t, err)

	sent := notifier.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Body, "Alex Rivera")
	assert.Contains(t, sent[0].Body, "google.com/maps")
	assert.Contains(t, sent[1].Subject, "EMERGENCY ALERT")
	assert.Contains(t, sent[1].Body, alert.ID)
	assert.Contains(t, sent[1].Body, "https://safesignal.example.com/alert/monitor/"+alert.ID+"/")
}
