package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/metrics"

	"gorm.io/gorm"
)

// AlertService owns the alert lifecycle: trigger, cancellation timer, safe
// word verification and terminal transitions.
type AlertService struct {
	db      *gorm.DB
	auditor *Auditor

	// one mutex per user so check-then-create in Trigger is atomic without
	// cross-user contention
	userLocks sync.Map
}

func NewAlertService(db *gorm.DB, auditor *Auditor) *AlertService {
	return &AlertService{db: db, auditor: auditor}
}

func (s *AlertService) lockFor(userID uint) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// TriggerInput is everything a trigger request may carry. Coordinates are
// optional; devices without a fix still raise alerts.
type TriggerInput struct {
	Latitude      *float64
	Longitude     *float64
	Accuracy      *float64
	TriggerMethod string
	Client        ClientMeta
}

// Trigger creates a new alert for the user with the cancellation timer
// already running. A user can hold at most one non-terminal alert; a second
// trigger fails with a conflict.
func (s *AlertService) Trigger(ctx context.Context, user *models.User, in TriggerInput) (*models.Alert, error) {
	mu := s.lockFor(user.ID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := models.ActiveAlertForUser(s.db, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "checking active alert")
	}
	if existing != nil {
		return nil, errors.Conflictf("user %d already has an active alert", user.ID)
	}

	method := in.TriggerMethod
	if method == "" {
		method = models.TriggerMethodPanicButton
	}

	now := time.Now()
	alert := &models.Alert{
		UserID:               user.ID,
		Status:               models.AlertStatusTriggered,
		TriggerMethod:        method,
		InitialLatitude:      in.Latitude,
		InitialLongitude:     in.Longitude,
		InitialAccuracy:      in.Accuracy,
		CancelTimerStartedAt: &now,
		UserAgent:            in.Client.UserAgent,
		IPAddress:            in.Client.IPAddress,
	}
	if err := s.db.Create(alert).Error; err != nil {
		return nil, errors.Wrap(err, "creating alert")
	}

	if err := s.db.Model(user).Update("active_alert", true).Error; err != nil {
		return nil, errors.Wrap(err, "flagging active alert")
	}
	user.ActiveAlert = true

	s.auditor.Record(user.ID, &alert.ID, models.AuditAlertTriggered,
		fmt.Sprintf("Alert triggered via %s", method),
		models.JSONMap{
			"trigger_method": method,
			"latitude":       in.Latitude,
			"longitude":      in.Longitude,
		}, in.Client)
	metrics.AlertsTriggered.Inc()

	return alert, nil
}

// CheckTimeout transitions a TRIGGERED alert whose cancellation window has
// elapsed to PENDING_CANCEL and reports true, signalling the caller to
// dispatch. Any other state, or a window still open, reports false. The
// timeout is an explicit parameter; the poller owns the schedule.
func (s *AlertService) CheckTimeout(ctx context.Context, alert *models.Alert, timeoutSeconds int) (bool, error) {
	if alert.Status != models.AlertStatusTriggered || alert.CancelTimerStartedAt == nil {
		return false, nil
	}
	if time.Since(*alert.CancelTimerStartedAt) < time.Duration(timeoutSeconds)*time.Second {
		return false, nil
	}

	alert.Status = models.AlertStatusPendingCancel
	if err := s.db.Model(alert).Update("status", models.AlertStatusPendingCancel).Error; err != nil {
		return false, errors.Wrap(err, "marking alert pending cancel")
	}
	return true, nil
}

// Cancel moves the alert to CANCELLED. Legal only from TRIGGERED,
// PENDING_CANCEL or DISPATCHED; reports false otherwise, leaving the alert
// untouched.
func (s *AlertService) Cancel(ctx context.Context, alert *models.Alert, reason string, client ClientMeta) (bool, error) {
	if !alert.CanCancel() {
		return false, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              models.AlertStatusCancelled,
		"cancelled_at":        now,
		"cancellation_reason": reason,
	}
	if err := s.db.Model(alert).Updates(updates).Error; err != nil {
		return false, errors.Wrap(err, "cancelling alert")
	}
	alert.Status = models.AlertStatusCancelled
	alert.CancelledAt = &now
	alert.CancellationReason = reason

	if err := s.clearActiveFlag(alert.UserID); err != nil {
		return false, err
	}

	s.auditor.Record(alert.UserID, &alert.ID, models.AuditAlertCancelled,
		fmt.Sprintf("Alert cancelled: %s", reason),
		models.JSONMap{"cancellation_reason": reason}, client)
	metrics.AlertsCancelled.Inc()

	return true, nil
}

// Resolve moves any non-terminal alert to RESOLVED. Resolving a terminal
// alert is an invalid transition.
func (s *AlertService) Resolve(ctx context.Context, alert *models.Alert, notes string, client ClientMeta) error {
	if alert.IsTerminal() {
		return errors.InvalidTransition("cannot resolve a terminal alert")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           models.AlertStatusResolved,
		"resolved_at":      now,
		"resolution_notes": notes,
	}
	if err := s.db.Model(alert).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "resolving alert")
	}
	alert.Status = models.AlertStatusResolved
	alert.ResolvedAt = &now
	alert.ResolutionNotes = notes

	if err := s.clearActiveFlag(alert.UserID); err != nil {
		return err
	}

	s.auditor.Record(alert.UserID, &alert.ID, models.AuditAlertResolved,
		fmt.Sprintf("Alert resolved: %s", notes),
		models.JSONMap{"resolution_notes": notes}, client)
	metrics.AlertsResolved.Inc()

	return nil
}

// MarkTimeout retires an expired alert whose dispatch never fired (no active
// contacts to notify). TIMEOUT is terminal.
func (s *AlertService) MarkTimeout(ctx context.Context, alert *models.Alert) error {
	if alert.IsTerminal() {
		return errors.InvalidTransition("alert is already terminal")
	}

	if err := s.db.Model(alert).Update("status", models.AlertStatusTimeout).Error; err != nil {
		return errors.Wrap(err, "marking alert timed out")
	}
	alert.Status = models.AlertStatusTimeout

	if err := s.clearActiveFlag(alert.UserID); err != nil {
		return err
	}

	s.auditor.Record(alert.UserID, &alert.ID, models.AuditAlertTimeout,
		"Alert timed out without dispatch", nil, ClientMeta{})
	return nil
}

// VerifySafeWord compares the attempt against the owner's configured safe
// word, case-insensitively. The attempted flag is always set; success only
// on a match. Verification never cancels the alert itself; the caller
// decides that. Attempts are not rate-limited.
func (s *AlertService) VerifySafeWord(ctx context.Context, alert *models.Alert, attempt string) (bool, error) {
	var owner models.User
	if err := s.db.First(&owner, alert.UserID).Error; err != nil {
		return false, errors.Wrap(err, "loading alert owner")
	}

	match := owner.SafeWord != "" && strings.EqualFold(owner.SafeWord, attempt)

	updates := map[string]interface{}{"safe_word_attempted": true}
	if match {
		updates["safe_word_success"] = true
	}
	if err := s.db.Model(alert).Updates(updates).Error; err != nil {
		return false, errors.Wrap(err, "recording safe word attempt")
	}
	alert.SafeWordAttempted = true
	if match {
		alert.SafeWordSuccess = true
	}
	return match, nil
}

func (s *AlertService) clearActiveFlag(userID uint) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("active_alert", false).Error; err != nil {
		return errors.Wrap(err, "clearing active alert flag")
	}
	return nil
}
