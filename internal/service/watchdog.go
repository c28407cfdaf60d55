package service

import (
	"context"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/logger"

	"gorm.io/gorm"
)

// TimeoutWatchdog polls non-terminal alerts and escalates those whose
// cancellation window expired. Expired alerts are dispatched; when dispatch
// cannot fire (no active contacts) the alert is retired as timed out.
type TimeoutWatchdog struct {
	db             *gorm.DB
	alerts         *AlertService
	dispatch       *DispatchService
	timeoutSeconds int
}

func NewTimeoutWatchdog(db *gorm.DB, alerts *AlertService, dispatch *DispatchService, timeoutSeconds int) *TimeoutWatchdog {
	return &TimeoutWatchdog{db: db, alerts: alerts, dispatch: dispatch, timeoutSeconds: timeoutSeconds}
}

// Run is one poll sweep. Implements scheduler.Job. A failure on one alert
// never blocks the rest of the sweep.
func (w *TimeoutWatchdog) Run(ctx context.Context) {
	alerts, err := models.NonTerminalAlerts(w.db)
	if err != nil {
		logger.Errorf("timeout sweep failed to load alerts: %v", err)
		return
	}

	for i := range alerts {
		alert := &alerts[i]

		switch alert.Status {
		case models.AlertStatusTriggered:
			expired, err := w.alerts.CheckTimeout(ctx, alert, w.timeoutSeconds)
			if err != nil {
				logger.Errorf("timeout check failed for alert %s: %v", alert.ID, err)
				continue
			}
			if !expired {
				continue
			}
			logger.Infof("cancellation window expired for alert %s, dispatching", alert.ID)
		case models.AlertStatusPendingCancel:
			// a previous sweep (or process) died between the status flip and
			// the dispatch; pick the alert back up
			logger.Warnf("alert %s stuck pending cancel, dispatching", alert.ID)
		default:
			continue
		}

		w.escalate(ctx, alert)
	}
}

func (w *TimeoutWatchdog) escalate(ctx context.Context, alert *models.Alert) {
	if _, err := w.dispatch.Dispatch(ctx, alert); err != nil {
		if errors.IsNoContacts(err) {
			logger.Warnf("alert %s has no active contacts, marking timed out", alert.ID)
			if err := w.alerts.MarkTimeout(ctx, alert); err != nil {
				logger.Errorf("failed to time out alert %s: %v", alert.ID, err)
			}
			return
		}
		logger.Errorf("dispatch failed for alert %s: %v", alert.ID, err)
	}
}
