package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SafeSignal/internal/models"
	"SafeSignal/internal/service"
	"SafeSignal/pkg/config"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/util"
	"SafeSignal/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{APIPrefix: "/api", BaseURL: "http://localhost:8080"}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := util.OpenDatabase(nil, "sqlite", fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)

	auditor := service.NewAuditor(db)
	alerts := service.NewAlertService(db, auditor)
	dispatch := service.NewDispatchService(db, auditor, nil, "")
	stream := service.NewStreamService(db, hub, auditor, nil)

	engine := gin.New()
	NewHandlers(db, hub, nil, alerts, dispatch, stream, auditor).Register(engine)
	return engine, db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Username: "alice", Email: "alice@example.com", SafeWord: "butterfly"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doJSON(engine *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func asUser(user *models.User) map[string]string {
	return map[string]string{
		middleware.HeaderUserID:    fmt.Sprint(user.ID),
		middleware.HeaderUserEmail: user.Email,
	}
}

func TestHealthEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t)
	w := doJSON(engine, http.MethodGet, "/api/system/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestTriggerEndpoint(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)

	w := doJSON(engine, http.MethodPost, "/api/alert/trigger",
		gin.H{"latitude": 37.7749, "longitude": -122.4194}, asUser(user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.ID)
	assert.Equal(t, models.AlertStatusTriggered, body.Data.Status)

	// second trigger while the first is active
	w = doJSON(engine, http.MethodPost, "/api/alert/trigger", gin.H{}, asUser(user))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerRequiresIdentity(t *testing.T) {
	engine, _ := newTestRouter(t)
	w := doJSON(engine, http.MethodPost, "/api/alert/trigger", gin.H{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)
	alert := &models.Alert{UserID: user.ID, Status: models.AlertStatusTriggered}
	require.NoError(t, db.Create(alert).Error)

	w := doJSON(engine, http.MethodPost, "/api/alert/"+alert.ID+"/cancel",
		gin.H{"reason": "false alarm"}, asUser(user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// terminal now, cancelling again is an invalid transition
	w = doJSON(engine, http.MethodPost, "/api/alert/"+alert.ID+"/cancel",
		gin.H{"reason": "again"}, asUser(user))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCancelRejectsOtherUsersAlert(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)
	other := &models.User{Username: "mallory", Email: "mallory@example.com"}
	require.NoError(t, db.Create(other).Error)
	alert := &models.Alert{UserID: user.ID, Status: models.AlertStatusTriggered}
	require.NoError(t, db.Create(alert).Error)

	w := doJSON(engine, http.MethodPost, "/api/alert/"+alert.ID+"/cancel", gin.H{}, asUser(other))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSafeWordEndpoint(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)
	alert := &models.Alert{UserID: user.ID, Status: models.AlertStatusTriggered}
	require.NoError(t, db.Create(alert).Error)

	w := doJSON(engine, http.MethodPost, "/api/alert/"+alert.ID+"/safe-word",
		gin.H{"safe_word": "BUTTERFLY"}, asUser(user))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = doJSON(engine, http.MethodPost, "/api/alert/"+alert.ID+"/safe-word",
		gin.H{"safe_word": "wrong"}, asUser(user))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestAlertStatusAuthorization(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)
	alert := &models.Alert{UserID: user.ID, Status: models.AlertStatusTriggered}
	require.NoError(t, db.Create(alert).Error)

	contactUser := &models.User{Username: "carol", Email: "carol@example.com"}
	require.NoError(t, db.Create(contactUser).Error)
	require.NoError(t, db.Create(&models.EmergencyContact{
		UserID: user.ID, Name: "Carol", PhoneNumber: "+15550001111",
		Email: "carol@example.com", Priority: 1, IsActive: true,
	}).Error)

	stranger := &models.User{Username: "mallory", Email: "mallory@example.com"}
	require.NoError(t, db.Create(stranger).Error)

	w := doJSON(engine, http.MethodGet, "/api/alert/"+alert.ID, nil, asUser(user))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(engine, http.MethodGet, "/api/alert/"+alert.ID, nil, asUser(contactUser))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(engine, http.MethodGet, "/api/alert/"+alert.ID, nil, asUser(stranger))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestContactValidationRejected(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)

	w := doJSON(engine, http.MethodPost, "/api/contacts",
		gin.H{"name": "Bob", "phone_number": "not-a-phone", "email": "bob@example.com"},
		asUser(user))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSafeZoneRadiusBounds(t *testing.T) {
	engine, db := newTestRouter(t)
	user := seedUser(t, db)

	w := doJSON(engine, http.MethodPost, "/api/safezones",
		gin.H{"name": "Home", "latitude": 10.0, "longitude": 10.0, "radius_meters": 10},
		asUser(user))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(engine, http.MethodPost, "/api/safezones",
		gin.H{"name": "Home", "latitude": 10.0, "longitude": 10.0, "radius_meters": 500},
		asUser(user))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
