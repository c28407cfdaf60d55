package config

import (
	"log"
	"os"

	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/notification"
	"SafeSignal/pkg/util"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	BaseURL   string `env:"BASE_URL"` // public URL used in monitoring links

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log  logger.LogConfig
	Mail notification.MailConfig

	// Alert lifecycle
	CancelTimeoutSeconds int    `env:"ALERT_CANCEL_TIMEOUT_SECONDS"`
	TimeoutPollSchedule  string `env:"ALERT_TIMEOUT_POLL_SCHEDULE"` // cron expression

	// Backups are off unless a path is configured.
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
	BackupPath     string `env:"BACKUP_PATH"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnv("ADDR"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnv("API_PREFIX"),
		BaseURL:   util.GetEnv("BASE_URL"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		CancelTimeoutSeconds: int(util.GetIntEnv("ALERT_CANCEL_TIMEOUT_SECONDS")),
		TimeoutPollSchedule:  util.GetEnv("ALERT_TIMEOUT_POLL_SCHEDULE"),
		BackupSchedule:       util.GetEnv("BACKUP_SCHEDULE"),
		BackupPath:           util.GetEnv("BACKUP_PATH"),
	}

	if GlobalConfig.Addr == "" {
		GlobalConfig.Addr = ":8080"
	}
	if GlobalConfig.APIPrefix == "" {
		GlobalConfig.APIPrefix = "/api"
	}
	if GlobalConfig.BaseURL == "" {
		GlobalConfig.BaseURL = "http://localhost:8080"
	}
	if GlobalConfig.CancelTimeoutSeconds <= 0 {
		GlobalConfig.CancelTimeoutSeconds = 120
	}
	if GlobalConfig.TimeoutPollSchedule == "" {
		GlobalConfig.TimeoutPollSchedule = "@every 10s"
	}
	if GlobalConfig.BackupSchedule == "" {
		GlobalConfig.BackupSchedule = "@daily"
	}
	return nil
}
