//go:build !linux && !(darwin && cgo)
// +build !linux
// +build !darwin !cgo

package monitor

import (
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// NewDisplayWatchers returns no watchers on unsupported platforms
func NewDisplayWatchers(logger *zap.Logger, publisher domain.RequestPublisher) []domain.DisplayWatcher {
	logger.Warn("Display hot-plug monitoring is not implemented for this platform")
	return nil
}
