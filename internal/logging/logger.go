// Package logging builds the process-wide zap logger.
// Records go to stderr and to a size-rotated file in the log directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	appName     = "MovingWallpaper"
	logFileName = "movingwallpaper.log"
)

// Options controls where and how verbosely the logger writes
type Options struct {
	Dir   string
	Level zapcore.Level
	// Console disables the stderr sink when false
	Console bool
}

// OptionsFromEnv reads MOVINGWALLPAPER_LOG_DIR and MOVINGWALLPAPER_LOG_LEVEL
func OptionsFromEnv() (Options, error) {
	opts := Options{
		Dir:     os.Getenv("MOVINGWALLPAPER_LOG_DIR"),
		Level:   zapcore.InfoLevel,
		Console: true,
	}

	if v := strings.TrimSpace(os.Getenv("MOVINGWALLPAPER_LOG_LEVEL")); v != "" {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return opts, fmt.Errorf("invalid log level %q: %w", v, err)
		}
		opts.Level = lvl
	}

	if opts.Dir == "" {
		dir, err := defaultLogDir()
		if err != nil {
			return opts, err
		}
		opts.Dir = dir
	}

	return opts, nil
}

// NewLogger creates the production logger from environment options
func NewLogger() (*zap.Logger, error) {
	opts, err := OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	return New(opts)
}

// New creates a logger writing JSON records to a rotating file and, optionally, stderr
func New(opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, logFileName),
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	})

	cores := []zapcore.Core{zapcore.NewCore(encoder, file, opts.Level)}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), opts.Level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func defaultLogDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Logs", appName), nil
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cache, strings.ToLower(appName), "logs"), nil
}
