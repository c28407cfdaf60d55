package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig mirrors the LOG_* environment block.
type LogConfig struct {
	Level      string
	Filename   string
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Init builds the global logger. When Filename is set, output is rotated via
// lumberjack and mirrored to stdout; otherwise it is console only.
func Init(cfg LogConfig) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := parseLevel(cfg.Level)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		level,
	)

	core := consoleCore
	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotator),
			level,
		)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func get() *zap.SugaredLogger {
	once.Do(func() {
		if log == nil {
			Init(LogConfig{})
		}
	})
	return log
}

func Debug(args ...interface{})                 { get().Debug(args...) }
func Debugf(format string, args ...interface{}) { get().Debugf(format, args...) }
func Info(args ...interface{})                  { get().Info(args...) }
func Infof(format string, args ...interface{})  { get().Infof(format, args...) }
func Warn(args ...interface{})                  { get().Warn(args...) }
func Warnf(format string, args ...interface{})  { get().Warnf(format, args...) }
func Error(args ...interface{})                 { get().Error(args...) }
func Errorf(format string, args ...interface{}) { get().Errorf(format, args...) }

// Sync flushes buffered log entries, for use on shutdown.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
