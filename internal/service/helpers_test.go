package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"SafeSignal/internal/models"
	"SafeSignal/pkg/notification"
	"SafeSignal/pkg/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := util.OpenDatabase(nil, "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Alex",
		LastName:  "Rivera",
		SafeWord:  "butterfly",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createContact(t *testing.T, db *gorm.DB, userID uint, name string, priority int) *models.EmergencyContact {
	t.Helper()
	contact := &models.EmergencyContact{
		UserID:      userID,
		Name:        name,
		PhoneNumber: "+15550001111",
		Email:       strings.ToLower(name) + "@example.com",
		Priority:    priority,
		IsActive:    true,
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

func createAlert(t *testing.T, db *gorm.DB, userID uint, status string) *models.Alert {
	t.Helper()
	alert := &models.Alert{UserID: userID, Status: status}
	require.NoError(t, db.Create(alert).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).
		Update("active_alert", !alert.IsTerminal()).Error)
	return alert
}

// fakeNotifier records every delivery and can be told to fail one channel.
type fakeNotifier struct {
	mu          sync.Mutex
	deliveries  []notification.Delivery
	failChannel string
}

func (f *fakeNotifier) Send(ctx context.Context, d notification.Delivery) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChannel != "" && f.failChannel == d.Channel {
		return "", fmt.Errorf("gateway unavailable")
	}
	f.deliveries = append(f.deliveries, d)
	return notification.StatusSent, nil
}

func (f *fakeNotifier) sent() []notification.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notification.Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}
