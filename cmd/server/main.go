package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "SafeSignal/internal/handler"
	"SafeSignal/internal/models"
	"SafeSignal/internal/service"
	"SafeSignal/pkg/backup"
	"SafeSignal/pkg/cache"
	"SafeSignal/pkg/config"
	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/metrics"
	"SafeSignal/pkg/notification"
	"SafeSignal/pkg/scheduler"
	"SafeSignal/pkg/sse"
	"SafeSignal/pkg/util"
	"SafeSignal/pkg/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := config.Load(); err != nil {
		logger.Errorf("config load failed: %v", err)
		os.Exit(1)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(nil, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Errorf("database open failed: %v", err)
		os.Exit(1)
	}
	if err := models.Migrate(db); err != nil {
		logger.Errorf("migration failed: %v", err)
		os.Exit(1)
	}

	hub := websocket.NewHub(websocket.LoadConfigFromEnv())
	defer hub.Close()

	localCache := cache.NewLocal(cache.DefaultLocalConfig())
	defer localCache.Close()

	notifier := buildNotifier(cfg.Mail)

	auditor := service.NewAuditor(db)
	alerts := service.NewAlertService(db, auditor)
	dispatch := service.NewDispatchService(db, auditor, notifier, cfg.BaseURL)
	stream := service.NewStreamService(db, hub, auditor, localCache)

	events := sse.NewHub(0)
	stream.AttachSSE(events)

	cron := scheduler.NewCron(nil)
	watchdog := service.NewTimeoutWatchdog(db, alerts, dispatch, cfg.CancelTimeoutSeconds)
	if _, err := cron.Add(cfg.TimeoutPollSchedule, watchdog); err != nil {
		logger.Errorf("watchdog schedule %q invalid: %v", cfg.TimeoutPollSchedule, err)
		os.Exit(1)
	}
	if cfg.BackupPath != "" {
		err := backup.Schedule(cron, backup.Config{
			Schedule: cfg.BackupSchedule,
			Path:     cfg.BackupPath,
			DBDriver: cfg.DBDriver,
			DSN:      cfg.DSN,
		})
		if err != nil {
			logger.Errorf("backup schedule %q invalid: %v", cfg.BackupSchedule, err)
			os.Exit(1)
		}
	}
	cron.Start()
	defer cron.Stop()

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/metrics", metrics.Handler())

	handlers.NewHandlers(db, hub, events, alerts, dispatch, stream, auditor).Register(engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}
	go func() {
		logger.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown failed: %v", err)
	}
}

// buildNotifier wires real transports when mail is configured and falls back
// to simulated delivery otherwise. SMS stays simulated until a gateway client
// is configured.
func buildNotifier(mail notification.MailConfig) notification.Notifier {
	router := &notification.Router{}
	if mail.Host != "" {
		router.Email = notification.NewMailer(mail, notification.NewSMTPClient(mail))
	}
	return router
}
