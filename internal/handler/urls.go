package handlers

import (
	"time"

	"SafeSignal/internal/service"
	"SafeSignal/pkg/config"
	"SafeSignal/pkg/middleware"
	"SafeSignal/pkg/sse"
	"SafeSignal/pkg/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db       *gorm.DB
	hub      *websocket.Hub
	events   *sse.Hub
	alerts   *service.AlertService
	dispatch *service.DispatchService
	stream   *service.StreamService
	auditor  *service.Auditor
}

func NewHandlers(db *gorm.DB, hub *websocket.Hub, events *sse.Hub, alerts *service.AlertService,
	dispatch *service.DispatchService, stream *service.StreamService, auditor *service.Auditor) *Handlers {
	return &Handlers{
		db:       db,
		hub:      hub,
		events:   events,
		alerts:   alerts,
		dispatch: dispatch,
		stream:   stream,
		auditor:  auditor,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	r.Use(middleware.InjectDB(h.db))
	r.Use(middleware.Identity())
	r.Use(middleware.RequestLog())

	h.registerSystemRoutes(r)
	h.registerAlertRoutes(r)
	h.registerContactRoutes(r)
	h.registerSafeZoneRoutes(r)
	h.registerSocketRoutes(r)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alert := r.Group("alert")
	alert.Use(middleware.RequireIdentity)
	{
		alert.POST("/trigger", middleware.Idempotency(30*time.Second), h.handleAlertTrigger)

		alert.POST("/:id/cancel", h.handleAlertCancel)

		alert.POST("/:id/resolve", h.handleAlertResolve)

		alert.POST("/:id/safe-word", h.handleSafeWordCheck)

		alert.GET("/:id", h.handleAlertStatus)

		alert.GET("/:id/events", h.handleMonitorEvents)

		alert.GET("", h.handleAlertHistory)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	contacts := r.Group("contacts")
	contacts.Use(middleware.RequireIdentity)
	{
		contacts.GET("", h.handleListContacts)

		contacts.POST("", h.handleCreateContact)

		contacts.PUT("/:id", h.handleUpdateContact)

		contacts.DELETE("/:id", h.handleDeleteContact)
	}
}

func (h *Handlers) registerSafeZoneRoutes(r *gin.RouterGroup) {
	zones := r.Group("safezones")
	zones.Use(middleware.RequireIdentity)
	{
		zones.GET("", h.handleListSafeZones)

		zones.POST("", h.handleCreateSafeZone)

		zones.PUT("/:id", h.handleUpdateSafeZone)

		zones.DELETE("/:id", h.handleDeleteSafeZone)
	}
}

func (h *Handlers) registerSocketRoutes(r *gin.RouterGroup) {
	ws := r.Group("ws")
	{
		ws.GET("/report", h.handleReporterSocket)

		ws.GET("/monitor/:id", h.handleMonitorSocket)
	}
}
