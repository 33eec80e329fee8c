//go:build linux
// +build linux

package monitor

import (
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// NewDisplayWatchers returns every display watcher available on Linux.
// RandR covers X11 sessions, Mutter covers GNOME on Wayland; duplicates are
// absorbed by the coordinator's settle delay.
func NewDisplayWatchers(logger *zap.Logger, publisher domain.RequestPublisher) []domain.DisplayWatcher {
	return []domain.DisplayWatcher{
		NewRandRMonitor(logger, publisher),
		NewMutterMonitor(logger, publisher),
	}
}
