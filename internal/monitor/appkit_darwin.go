//go:build darwin && cgo

package monitor

import (
	"context"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/genricoloni/movingwallpaper/internal/platform"
	"go.uber.org/zap"
)

// AppKitMonitor observes NSApplicationDidChangeScreenParametersNotification
type AppKitMonitor struct {
	logger    *zap.Logger
	publisher domain.RequestPublisher

	mu   sync.Mutex
	stop func()
}

// NewAppKitMonitor creates the macOS display watcher
func NewAppKitMonitor(logger *zap.Logger, publisher domain.RequestPublisher) *AppKitMonitor {
	return &AppKitMonitor{
		logger:    logger,
		publisher: publisher,
	}
}

// Name identifies the watcher in logs
func (m *AppKitMonitor) Name() string {
	return "appkit"
}

// Start registers the notification observer on the main queue
func (m *AppKitMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop != nil {
		return nil
	}

	m.stop = platform.ObserveScreenParameters(func() {
		m.logger.Info("Display configuration changed", zap.String("origin", m.Name()))
		m.publisher.Publish(domain.RebuildRequest{
			Reason: domain.ReasonDisplayConfiguration,
			Origin: m.Name(),
		})
	})

	m.logger.Info("AppKit display monitor started")
	return nil
}

// Stop removes the observer
func (m *AppKitMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop == nil {
		return nil
	}
	m.stop()
	m.stop = nil

	m.logger.Info("AppKit display monitor stopped")
	return nil
}
