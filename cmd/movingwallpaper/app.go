package main

import (
	"context"

	"github.com/genricoloni/movingwallpaper/internal/config"
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/genricoloni/movingwallpaper/internal/engine"
	"github.com/genricoloni/movingwallpaper/internal/events"
	"github.com/genricoloni/movingwallpaper/internal/logging"
	"github.com/genricoloni/movingwallpaper/internal/monitor"
	"github.com/genricoloni/movingwallpaper/internal/platform"
	"github.com/genricoloni/movingwallpaper/internal/settings"
	"github.com/genricoloni/movingwallpaper/internal/ui"
	"github.com/genricoloni/movingwallpaper/internal/video"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// AppOptions is the dependency graph of the application.
// The fyne.App is provided by main so it can own the main thread.
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		logging.NewLogger,

		fx.Annotate(
			config.NewAppConfig,
			fx.As(new(domain.Config)),
		),

		// One bus: watchers and the settings store publish, the coordinator consumes
		fx.Annotate(
			events.NewBus,
			fx.As(new(domain.RequestPublisher), new(domain.RequestSource)),
		),

		fx.Annotate(
			settings.NewYAMLStore,
			fx.As(new(domain.PreferenceStore)),
		),
		settings.NewStore,
		func(s *settings.Store) domain.VideoSelector { return s },
		settings.NewFileWatcher,

		fx.Annotate(
			video.NewResolver,
			fx.As(new(domain.VideoResolver)),
		),

		platform.NewBackend,
		func(b *platform.Backend) domain.DisplayProvider { return b },
		func(b *platform.Backend) domain.SurfaceFactory { return b },
		func(b *platform.Backend) domain.MediaFactory { return b },

		monitor.NewDisplayWatchers,

		engine.NewCoordinator,
		func(c *engine.Coordinator) domain.StatusProvider { return c },

		ui.NewSettingsWindow,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

// registerHooks orders startup: watchers first so no change is missed,
// then the coordinator, then the settings window. Stop runs in reverse.
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zap.Logger,
	backend *platform.Backend,
	watchers []domain.DisplayWatcher,
	files *settings.FileWatcher,
	coordinator *engine.Coordinator,
	window *ui.SettingsWindow,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Moving Wallpaper started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			if err := backend.Close(); err != nil {
				logger.Warn("Failed to close platform backend", zap.Error(err))
			}
			_ = logger.Sync()
			return nil
		},
	})

	for _, w := range watchers {
		lc.Append(fx.Hook{
			// A missing notification source degrades to manual rebuilds only
			OnStart: func(ctx context.Context) error {
				if err := w.Start(ctx); err != nil {
					logger.Warn("Display watcher unavailable", zap.String("watcher", w.Name()), zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if err := w.Stop(ctx); err != nil {
					logger.Warn("Display watcher did not stop cleanly", zap.String("watcher", w.Name()), zap.Error(err))
				}
				return nil
			},
		})
	}

	lc.Append(fx.Hook{
		OnStart: files.Start,
		OnStop:  files.Stop,
	})

	lc.Append(fx.Hook{
		OnStart: coordinator.Start,
		OnStop:  coordinator.Stop,
	})

	window.SetQuitHandler(func() {
		if err := shutdowner.Shutdown(); err != nil {
			logger.Error("Failed to request shutdown", zap.Error(err))
		}
	})
	lc.Append(fx.Hook{
		OnStart: window.Start,
	})
}
