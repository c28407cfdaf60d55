package service

import (
	"context"
	"fmt"
	"time"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/metrics"
	"SafeSignal/pkg/notification"

	"gorm.io/gorm"
)

// DispatchService notifies emergency contacts of an active alert. Delivery
// is "attempted", never "guaranteed": a failed send is recorded and the
// dispatch carries on.
type DispatchService struct {
	db       *gorm.DB
	auditor  *Auditor
	notifier notification.Notifier
	baseURL  string
}

func NewDispatchService(db *gorm.DB, auditor *Auditor, notifier notification.Notifier, baseURL string) *DispatchService {
	if notifier == nil {
		notifier = notification.Simulated{}
	}
	return &DispatchService{db: db, auditor: auditor, notifier: notifier, baseURL: baseURL}
}

// DispatchResult summarizes one dispatch operation.
type DispatchResult struct {
	ContactsNotified int
	Records          []models.DispatchRecord
}

// Dispatch sends SMS and email to every active contact in priority order and
// moves the alert to DISPATCHED. With zero active contacts it fails and the
// alert is left untouched.
func (s *DispatchService) Dispatch(ctx context.Context, alert *models.Alert) (*DispatchResult, error) {
	switch alert.Status {
	case models.AlertStatusTriggered, models.AlertStatusPendingCancel:
	default:
		return nil, errors.WithCodef(errors.CodeInvalidTransition,
			"cannot dispatch alert in state %s", alert.Status)
	}

	contacts, err := models.ActiveContactsForUser(s.db, alert.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "loading emergency contacts")
	}
	if len(contacts) == 0 {
		return nil, errors.NoContacts("no active emergency contacts")
	}

	var owner models.User
	if err := s.db.First(&owner, alert.UserID).Error; err != nil {
		return nil, errors.Wrap(err, "loading alert owner")
	}

	result := &DispatchResult{}
	for _, contact := range contacts {
		tmpl := templateData(alert, &owner, &contact, s.baseURL)

		result.Records = append(result.Records,
			s.deliver(ctx, alert, &contact, models.ChannelSMS, contact.PhoneNumber, "", composeSMS(tmpl)))
		result.Records = append(result.Records,
			s.deliver(ctx, alert, &contact, models.ChannelEmail, contact.Email, emailSubject(tmpl), composeEmail(tmpl)))

		result.ContactsNotified++
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            models.AlertStatusDispatched,
		"dispatched_at":     now,
		"contacts_notified": result.ContactsNotified,
	}
	if err := s.db.Model(alert).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "marking alert dispatched")
	}
	alert.Status = models.AlertStatusDispatched
	alert.DispatchedAt = &now
	alert.ContactsNotified = result.ContactsNotified

	s.auditor.Record(alert.UserID, &alert.ID, models.AuditAlertDispatched,
		fmt.Sprintf("Alert dispatched to %d contacts", result.ContactsNotified),
		models.JSONMap{
			"contacts_notified": result.ContactsNotified,
			"dispatch_channels": []string{models.ChannelSMS, models.ChannelEmail},
		}, ClientMeta{})
	metrics.AlertsDispatched.Inc()

	return result, nil
}

// deliver sends one message over one channel and persists the outcome. A
// notifier failure yields a FAILED record, never an aborted dispatch.
func (s *DispatchService) deliver(ctx context.Context, alert *models.Alert, contact *models.EmergencyContact, channel, recipient, subject, body string) models.DispatchRecord {
	record := models.DispatchRecord{
		AlertID:     alert.ID,
		ContactID:   contact.ID,
		Channel:     channel,
		MessageBody: body,
	}

	status, err := s.notifier.Send(ctx, notification.Delivery{
		Channel:   channel,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		record.Status = models.DispatchStatusFailed
		record.ErrorDetail = errors.Notifier(err.Error()).Error()
		logger.Warnf("notifier %s delivery to contact %d failed: %v", channel, contact.ID, err)
	} else {
		now := time.Now()
		record.Status = status
		record.SentAt = &now
	}

	if err := s.db.Create(&record).Error; err != nil {
		logger.Errorf("failed to persist dispatch record for alert %s: %v", alert.ID, err)
	}
	metrics.DispatchRecords.WithLabelValues(record.Channel, record.Status).Inc()
	return record
}
