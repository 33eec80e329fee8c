//go:build !linux && !(darwin && cgo)
// +build !linux
// +build !darwin !cgo

package platform

import (
	"context"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// Backend is a placeholder for unsupported platforms (Windows, BSD, darwin without cgo)
type Backend struct {
	logger *zap.Logger
}

// NewBackend creates a stub backend that enumerates no displays
func NewBackend(logger *zap.Logger) (*Backend, error) {
	logger.Warn("Desktop surfaces are not implemented for this platform")
	return &Backend{logger: logger}, nil
}

// Displays returns ErrUnsupported
func (b *Backend) Displays(ctx context.Context) ([]domain.DisplayDescriptor, error) {
	return nil, ErrUnsupported
}

// NewSurface returns ErrUnsupported
func (b *Backend) NewSurface(ctx context.Context, d domain.DisplayDescriptor) (domain.Surface, error) {
	return nil, ErrUnsupported
}

// NewMedia returns ErrUnsupported
func (b *Backend) NewMedia(ctx context.Context, ref domain.VideoReference, strategy domain.LoopStrategy) (domain.Media, error) {
	return nil, ErrUnsupported
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}
