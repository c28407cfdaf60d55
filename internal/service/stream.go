package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/cache"
	"SafeSignal/pkg/errors"
	"SafeSignal/pkg/geo"
	"SafeSignal/pkg/metrics"
	"SafeSignal/pkg/sse"
	"SafeSignal/pkg/websocket"

	"gorm.io/gorm"
)

// StreamService is the location fan-out: one reporter per alert publishes
// samples, every authorized monitor subscribed to that alert receives them
// in publish order.
type StreamService struct {
	db      *gorm.DB
	hub     *websocket.Hub
	sse     *sse.Hub
	auditor *Auditor
	cache   cache.Cache
}

func NewStreamService(db *gorm.DB, hub *websocket.Hub, auditor *Auditor, c cache.Cache) *StreamService {
	if c == nil {
		c = cache.NewLocal(cache.DefaultLocalConfig())
	}
	return &StreamService{db: db, hub: hub, auditor: auditor, cache: c}
}

// AttachSSE mirrors every broadcast onto the event-stream hub, the fallback
// feed for monitors without a websocket.
func (s *StreamService) AttachSSE(hub *sse.Hub) {
	s.sse = hub
}

// PublishInput is one inbound location report.
type PublishInput struct {
	AlertID   string
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Altitude  *float64
	Speed     *float64
	Heading   *float64
}

// Publish validates the publisher owns the alert, evaluates safe-zone
// membership, persists the sample and broadcasts it to the alert's monitor
// channel.
func (s *StreamService) Publish(ctx context.Context, conn *websocket.Connection, in PublishInput) (*models.LocationSample, error) {
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, errors.Validation("coordinates out of range")
	}

	alert, err := models.AlertByID(s.db, in.AlertID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundf("alert %s not found", in.AlertID)
		}
		return nil, errors.Wrap(err, "loading alert")
	}
	if alert.UserID != conn.UserID {
		return nil, errors.Forbidden("only the alert owner may publish location")
	}
	if alert.IsTerminal() {
		return nil, errors.InvalidTransition("alert is no longer active")
	}

	zones, err := models.ActiveZonesForUser(s.db, alert.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "loading safe zones")
	}
	geoZones := make([]geo.Zone, len(zones))
	for i := range zones {
		geoZones[i] = &zones[i]
	}
	res := geo.Evaluate(in.Latitude, in.Longitude, geoZones)

	sample := &models.LocationSample{
		AlertID:   alert.ID,
		Latitude:  round6(in.Latitude),
		Longitude: round6(in.Longitude),
		Accuracy:  in.Accuracy,
		Altitude:  in.Altitude,
		Speed:     in.Speed,
		Heading:   in.Heading,
	}
	sample.InSafeZone = res.Inside
	if res.NearestIndex >= 0 {
		sample.NearestZoneID = &zones[res.NearestIndex].ID
	}

	if err := s.db.Create(sample).Error; err != nil {
		return nil, errors.Wrap(err, "saving location sample")
	}
	_ = s.cache.Set(ctx, latestSampleKey(alert.ID), sample, 10*time.Minute)

	s.auditor.Record(alert.UserID, &alert.ID, models.AuditLocationUpdated,
		fmt.Sprintf("Location updated: (%.6f, %.6f)", sample.Latitude, sample.Longitude),
		models.JSONMap{
			"accuracy":     in.Accuracy,
			"in_safe_zone": res.Inside,
		}, ClientMeta{})
	metrics.SamplesPublished.Inc()

	event := map[string]interface{}{
		"type":     "location_update",
		"location": sample,
	}
	s.hub.Broadcast(alert.ID, event)
	if s.sse != nil {
		s.sse.SendToGroupJSON(alert.ID, event)
	}

	return sample, nil
}

// Subscribe authorizes the connection against the alert (owner, or active
// emergency contact matched by email) and registers it on the alert's
// monitor channel. Returns the alert, its owner and the latest sample for
// the initial status message.
func (s *StreamService) Subscribe(ctx context.Context, conn *websocket.Connection, alertID string) (*models.Alert, *models.User, *models.LocationSample, error) {
	alert, err := models.AlertByID(s.db, alertID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, errors.NotFoundf("alert %s not found", alertID)
		}
		return nil, nil, nil, errors.Wrap(err, "loading alert")
	}

	if alert.UserID != conn.UserID {
		isContact, err := models.IsEmergencyContactEmail(s.db, alert.UserID, conn.Email)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "checking contact authorization")
		}
		if !isContact {
			return nil, nil, nil, errors.Forbidden("not authorized to monitor this alert")
		}
	}

	var owner models.User
	if err := s.db.First(&owner, alert.UserID).Error; err != nil {
		return nil, nil, nil, errors.Wrap(err, "loading alert owner")
	}

	if !s.hub.Subscribe(conn, alert.ID) {
		// the peer disconnected while we were authorizing
		return nil, nil, nil, fmt.Errorf("connection %s closed before subscription completed", conn.ID)
	}

	latest, err := s.latestSample(ctx, alert.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return alert, &owner, latest, nil
}

// Unsubscribe drops the connection from the alert channel. Idempotent.
func (s *StreamService) Unsubscribe(conn *websocket.Connection, alertID string) {
	s.hub.Unsubscribe(conn, alertID)
}

func (s *StreamService) latestSample(ctx context.Context, alertID string) (*models.LocationSample, error) {
	if cached, ok := s.cache.Get(ctx, latestSampleKey(alertID)); ok {
		if sample, ok := cached.(*models.LocationSample); ok {
			return sample, nil
		}
	}
	sample, err := models.LatestSampleForAlert(s.db, alertID)
	if err != nil {
		return nil, errors.Wrap(err, "loading latest sample")
	}
	return sample, nil
}

func latestSampleKey(alertID string) string {
	return "latest_sample:" + alertID
}

// round6 clamps coordinates to the 6-decimal precision the samples store.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
