// Package platform creates desktop-level background surfaces and muted video
// playback handles on the host window system.
//
// Every OS provides a Backend that implements domain.DisplayProvider,
// domain.SurfaceFactory and domain.MediaFactory.
package platform

import (
	"errors"
	"math"

	"github.com/genricoloni/movingwallpaper/internal/domain"
)

var (
	// ErrUnsupported is returned on systems without a surface implementation
	ErrUnsupported = errors.New("moving wallpaper is not supported on this platform")

	// ErrNoPlayer is returned when no video player is available to create media
	ErrNoPlayer = errors.New("no video player available")
)

// fallbackGray is the 8-bit channel value of the fallback color
func fallbackGray() uint8 {
	return uint8(math.Round(domain.FallbackWhite * 255))
}

// fallbackPixel packs the fallback color as a 24-bit RGB pixel
func fallbackPixel() uint32 {
	g := uint32(fallbackGray())
	return g<<16 | g<<8 | g
}
