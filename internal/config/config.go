package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

const (
	envPrefix = "MOVINGWALLPAPER_"

	defaultSettleDelay  = 500 * time.Millisecond
	defaultLoopStrategy = domain.LoopSeamless
	settingsDirName     = "MovingWallpaper"
	settingsFileName    = "settings.yaml"
)

// AppConfig holds application configuration
type AppConfig struct {
	logger        *zap.Logger
	resourceDir   string
	settingsPath  string
	settleDelay   time.Duration
	loopStrategy  domain.LoopStrategy
	resizeInPlace bool
	watchVideo    bool
}

// NewAppConfig creates a new application configuration instance
func NewAppConfig(logger *zap.Logger) *AppConfig {
	c := &AppConfig{
		logger:        logger,
		resourceDir:   expandPath(getenv("RESOURCE_DIR")),
		settingsPath:  expandPath(getenv("SETTINGS_FILE")),
		settleDelay:   defaultSettleDelay,
		loopStrategy:  defaultLoopStrategy,
		resizeInPlace: false,
		watchVideo:    true,
	}

	if c.resourceDir == "" {
		c.resourceDir = defaultResourceDir()
	}
	if c.settingsPath == "" {
		c.settingsPath = defaultSettingsPath()
	}

	if v := getenv("SETTLE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			logger.Warn("Invalid settle delay, using default",
				zap.String("value", v),
				zap.Duration("default", defaultSettleDelay))
		} else {
			c.settleDelay = d
		}
	}

	if v := getenv("LOOP_STRATEGY"); v != "" {
		s, err := domain.ParseLoopStrategy(v)
		if err != nil {
			logger.Warn("Invalid loop strategy, using default",
				zap.String("value", v),
				zap.String("default", string(defaultLoopStrategy)))
		} else {
			c.loopStrategy = s
		}
	}

	c.resizeInPlace = c.boolEnv("RESIZE_IN_PLACE", c.resizeInPlace)
	c.watchVideo = c.boolEnv("WATCH_VIDEO", c.watchVideo)

	logger.Info("Configuration loaded",
		zap.String("resourceDir", c.resourceDir),
		zap.String("settingsPath", c.settingsPath),
		zap.Duration("settleDelay", c.settleDelay),
		zap.String("loopStrategy", string(c.loopStrategy)),
		zap.Bool("resizeInPlace", c.resizeInPlace),
		zap.Bool("watchVideo", c.watchVideo))

	return c
}

func (c *AppConfig) boolEnv(name string, def bool) bool {
	v := getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.logger.Warn("Invalid boolean setting, using default",
			zap.String("name", envPrefix+name),
			zap.String("value", v),
			zap.Bool("default", def))
		return def
	}
	return b
}

// GetResourceDir returns the directory searched for the bundled wallpaper
func (c *AppConfig) GetResourceDir() string {
	return c.resourceDir
}

// GetSettingsPath returns the YAML file backing the preference store
func (c *AppConfig) GetSettingsPath() string {
	return c.settingsPath
}

// GetSettleDelay returns the wait before reacting to a display change
func (c *AppConfig) GetSettleDelay() time.Duration {
	return c.settleDelay
}

// GetLoopStrategy returns the looping strategy for new playback units
func (c *AppConfig) GetLoopStrategy() domain.LoopStrategy {
	return c.loopStrategy
}

// GetResizeInPlace reports whether geometry-only changes resize surfaces in place
func (c *AppConfig) GetResizeInPlace() bool {
	return c.resizeInPlace
}

// GetWatchVideo reports whether the custom video file is watched for removal
func (c *AppConfig) GetWatchVideo() bool {
	return c.watchVideo
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// expandPath expands environment variables and a leading ~
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

// defaultResourceDir is Contents/Resources when running from a macOS app bundle,
// otherwise the executable's directory
func defaultResourceDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	if runtime.GOOS == "darwin" && filepath.Base(dir) == "MacOS" {
		return filepath.Join(filepath.Dir(dir), "Resources")
	}
	return dir
}

func defaultSettingsPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, settingsDirName, settingsFileName)
}
