package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert lifecycle states. CANCELLED, RESOLVED and TIMEOUT are terminal; a
// terminal alert is never mutated again.
const (
	AlertStatusTriggered     = "TRIGGERED"
	AlertStatusPendingCancel = "PENDING_CANCEL"
	AlertStatusCancelled     = "CANCELLED"
	AlertStatusDispatched    = "DISPATCHED"
	AlertStatusResolved      = "RESOLVED"
	AlertStatusTimeout       = "TIMEOUT"
)

const TriggerMethodPanicButton = "panic_button"

// Alert is one emergency episode from trigger to terminal state.
type Alert struct {
	ID     string `json:"alertId" gorm:"primaryKey;size:36"`
	UserID uint   `json:"userId" gorm:"index"`
	Status string `json:"status" gorm:"size:20;default:TRIGGERED"`

	TriggeredAt   time.Time `json:"triggeredAt" gorm:"autoCreateTime"`
	TriggerMethod string    `json:"triggerMethod" gorm:"size:50;default:panic_button"`

	InitialLatitude  *float64 `json:"initialLatitude" gorm:"type:decimal(9,6)"`
	InitialLongitude *float64 `json:"initialLongitude" gorm:"type:decimal(9,6)"`
	InitialAccuracy  *float64 `json:"initialAccuracy"`

	CancelTimerStartedAt *time.Time `json:"cancelTimerStartedAt"`
	CancelledAt          *time.Time `json:"cancelledAt"`
	CancellationReason   string     `json:"cancellationReason"`

	DispatchedAt     *time.Time `json:"dispatchedAt"`
	ContactsNotified int        `json:"contactsNotified"`

	ResolvedAt      *time.Time `json:"resolvedAt"`
	ResolutionNotes string     `json:"resolutionNotes"`

	SafeWordAttempted bool `json:"safeWordAttempted"`
	SafeWordSuccess   bool `json:"safeWordSuccess"`

	UserAgent string `json:"userAgent"`
	IPAddress string `json:"ipAddress" gorm:"size:45"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the alert has reached a state that forbids
// further mutation.
func (a *Alert) IsTerminal() bool {
	switch a.Status {
	case AlertStatusCancelled, AlertStatusResolved, AlertStatusTimeout:
		return true
	}
	return false
}

// CanCancel reports whether a cancel request is legal in the current state.
func (a *Alert) CanCancel() bool {
	switch a.Status {
	case AlertStatusTriggered, AlertStatusPendingCancel, AlertStatusDispatched:
		return true
	}
	return false
}

// AlertByID loads one alert.
func AlertByID(db *gorm.DB, id string) (*Alert, error) {
	var alert Alert
	if err := db.Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// ActiveAlertForUser returns the user's non-terminal alert, or nil.
func ActiveAlertForUser(db *gorm.DB, userID uint) (*Alert, error) {
	var alert Alert
	err := db.Where("user_id = ? AND status IN ?", userID,
		[]string{AlertStatusTriggered, AlertStatusPendingCancel, AlertStatusDispatched}).
		Order("triggered_at desc").
		First(&alert).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// AlertsForUser lists the user's alerts newest first.
func AlertsForUser(db *gorm.DB, userID uint) ([]Alert, error) {
	var alerts []Alert
	err := db.Where("user_id = ?", userID).
		Order("triggered_at desc").
		Find(&alerts).Error
	return alerts, err
}

// NonTerminalAlerts lists every alert the timeout watchdog still has to poll.
func NonTerminalAlerts(db *gorm.DB) ([]Alert, error) {
	var alerts []Alert
	err := db.Where("status IN ?",
		[]string{AlertStatusTriggered, AlertStatusPendingCancel, AlertStatusDispatched}).
		Find(&alerts).Error
	return alerts, err
}
