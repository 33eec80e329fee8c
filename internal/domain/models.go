package domain

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// VideoSource identifies where the active video reference came from
type VideoSource string

const (
	// SourceNone means no playable video was found; surfaces show the fallback color
	SourceNone VideoSource = "none"
	// SourceBundled is the wallpaper.mp4 shipped with the application
	SourceBundled VideoSource = "bundled"
	// SourceCustom is a file the user picked in the settings window
	SourceCustom VideoSource = "custom"
)

// VideoReference points to the media file currently in use.
// The zero value is the absent reference.
type VideoReference struct {
	// Path is an absolute filesystem path
	Path string
	// Source records how the path was resolved
	Source VideoSource
}

// NoVideo is the absent reference
var NoVideo = VideoReference{Source: SourceNone}

// Present reports whether the reference points at a file
func (v VideoReference) Present() bool {
	return v.Path != ""
}

// Name returns the base file name, or an empty string when absent
func (v VideoReference) Name() string {
	if !v.Present() {
		return ""
	}
	return filepath.Base(v.Path)
}

// Rect is a display or surface frame in platform points
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FromImageRect converts integer bounds, as reported by X11, into a Rect
func FromImageRect(r image.Rectangle) Rect {
	return Rect{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// DisplayDescriptor is the platform-reported identity and geometry of one display.
// It is a value: read fresh on every rebuild and never cached beyond it.
type DisplayDescriptor struct {
	// ID is the platform display identifier (CGDirectDisplayID, X11 index)
	ID uint32
	// Frame is the display frame in global coordinates
	Frame Rect
	// Scale is the backing pixel scale factor (2.0 on Retina displays)
	Scale float64
}

// Label renders the descriptor for the settings window, e.g. "Display 1: 2560x1440 @2.0x".
// index is zero-based.
func (d DisplayDescriptor) Label(index int) string {
	return fmt.Sprintf("Display %d: %dx%d @%sx",
		index+1, int(d.Frame.Width), int(d.Frame.Height), formatScale(d.Scale))
}

// formatScale always keeps one decimal place for whole numbers (2 -> "2.0")
func formatScale(scale float64) string {
	s := strconv.FormatFloat(scale, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// SurfaceMode is what a display surface is currently presenting
type SurfaceMode string

const (
	// ModeHidden is a surface that has not been shown yet
	ModeHidden SurfaceMode = "hidden"
	// ModePlayback is a surface hosting a playback layer
	ModePlayback SurfaceMode = "playback"
	// ModeFallback is a surface painted with the fallback color
	ModeFallback SurfaceMode = "fallback"
)

// FallbackWhite is the gray level of the fallback color (0.15 white, #262626)
const FallbackWhite = 0.15

// LoopStrategy selects how a playback unit loops its media
type LoopStrategy string

const (
	// LoopSeamless binds a native looping driver at construction (no gap at the boundary)
	LoopSeamless LoopStrategy = "seamless"
	// LoopRestart seeks back to the start whenever the media reports end-of-stream
	LoopRestart LoopStrategy = "restart"
)

// ParseLoopStrategy parses a configured strategy name
func ParseLoopStrategy(s string) (LoopStrategy, error) {
	switch LoopStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case LoopSeamless:
		return LoopSeamless, nil
	case LoopRestart:
		return LoopRestart, nil
	default:
		return "", fmt.Errorf("unknown loop strategy %q", s)
	}
}

// RebuildReason tells the coordinator why a rebuild was requested
type RebuildReason string

const (
	// ReasonDisplayConfiguration is emitted on display hot-plug or reconfiguration
	ReasonDisplayConfiguration RebuildReason = "display-configuration-changed"
	// ReasonVideoSelection is emitted when the user picks or resets the video
	ReasonVideoSelection RebuildReason = "video-selection-changed"
)

// RebuildRequest is a message on the rebuild bus
type RebuildRequest struct {
	Reason RebuildReason
	// Origin names the publisher for logging (e.g. "mutter", "randr", "settings")
	Origin string
	At     time.Time
}

// CoordinatorState is the wallpaper coordinator lifecycle state
type CoordinatorState string

const (
	StateUninitialized CoordinatorState = "uninitialized"
	StateActive        CoordinatorState = "active"
	StateRebuilding    CoordinatorState = "rebuilding"
	StateTornDown      CoordinatorState = "torn-down"
)

// Status is the read-only snapshot exposed to the settings window
type Status struct {
	State        CoordinatorState
	DisplayCount int
	// Displays holds one Label per display, in enumeration order
	Displays []string
	// HasVideo is true when a video reference resolved (custom or bundled)
	HasVideo bool
	Video    VideoReference
	// Generation counts completed builds, starting at 1 for the initial build
	Generation int
}
