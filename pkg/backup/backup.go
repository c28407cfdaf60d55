package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"SafeSignal/pkg/logger"
	"SafeSignal/pkg/scheduler"
)

// Config names the backup destination and cadence. Alert and audit history is
// evidence; losing it is worse than losing the service, so deployments with a
// file-backed database run this on a schedule.
type Config struct {
	Schedule string // cron expression
	Path     string // destination directory
	DBDriver string
	DSN      string
}

// Schedule registers the backup job on the shared cron. A failed run is
// logged and retried on the next tick.
func Schedule(cr *scheduler.Cron, cfg Config) error {
	_, err := cr.Add(cfg.Schedule, scheduler.FuncJob(func(ctx context.Context) {
		if err := Execute(cfg); err != nil {
			logger.Warnf("backup failed: %v", err)
		}
	}))
	return err
}

// Execute runs one backup according to the configured driver.
func Execute(cfg Config) error {
	switch cfg.DBDriver {
	case "mysql":
		dst := filepath.Join(cfg.Path, fmt.Sprintf("safesignal_backup_%s.sql", time.Now().Format("20060102_150405")))
		return backupMySQL(cfg.DSN, dst)
	case "sqlite", "":
		if cfg.DSN == "" || strings.Contains(cfg.DSN, ":memory:") {
			return fmt.Errorf("in-memory database cannot be backed up")
		}
		dst := filepath.Join(cfg.Path, fmt.Sprintf("safesignal_backup_%s.db", time.Now().Format("20060102_150405")))
		return backupSQLite(cfg.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB driver for backup: %s", cfg.DBDriver)
	}
}

func backupSQLite(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("copying database: %w", err)
	}

	logger.Infof("sqlite backup completed: %s", dst)
	return nil
}

func backupMySQL(dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer out.Close()

	cmd := exec.Command("mysqldump", dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump failed: %w", err)
	}

	logger.Infof("mysql backup completed: %s", dst)
	return nil
}
