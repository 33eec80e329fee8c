//go:build darwin && cgo

package monitor

import (
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// NewDisplayWatchers returns the AppKit screen-parameters watcher
func NewDisplayWatchers(logger *zap.Logger, publisher domain.RequestPublisher) []domain.DisplayWatcher {
	return []domain.DisplayWatcher{
		NewAppKitMonitor(logger, publisher),
	}
}
