package domain

import (
	"context"
	"time"
)

// DisplayProvider enumerates the currently connected displays
type DisplayProvider interface {
	// Displays returns one descriptor per connected display, in platform order.
	// An empty slice is not an error.
	Displays(ctx context.Context) ([]DisplayDescriptor, error)
}

// Surface is the background window covering one display
type Surface interface {
	// Descriptor returns the display the surface was created for, with its current frame
	Descriptor() DisplayDescriptor

	// Mode returns what the surface currently presents
	Mode() SurfaceMode

	// AttachPlayback replaces any attachment with the media's playback layer,
	// filling the content area with aspect-fill scaling, and orders the surface back
	AttachPlayback(media Media)

	// ShowFallback removes any attachment and paints the fallback color
	ShowFallback()

	// ResizeTo moves the surface and its playback layer to a new frame
	ResizeTo(d DisplayDescriptor)

	// Close hides the surface and releases its platform window
	Close()
}

// SurfaceFactory creates surfaces for displays
type SurfaceFactory interface {
	NewSurface(ctx context.Context, d DisplayDescriptor) (Surface, error)
}

// Media is a platform playback handle driven by a playback unit.
// Audio is always muted.
type Media interface {
	// Play starts or resumes playback
	Play() error

	// Pause halts playback
	Pause()

	// SeekToStart rewinds to the first frame
	SeekToStart() error

	// Ended emits once each time the media reaches end-of-stream.
	// Media created with LoopSeamless never emits.
	Ended() <-chan struct{}

	// Close disables the loop driver and releases the handle
	Close()
}

// MediaFactory creates playback handles for a video reference
type MediaFactory interface {
	NewMedia(ctx context.Context, ref VideoReference, strategy LoopStrategy) (Media, error)
}

// DisplayWatcher publishes display-configuration changes to the rebuild bus
type DisplayWatcher interface {
	// Name identifies the watcher in logs
	Name() string

	// Start subscribes to platform notifications and returns immediately
	Start(ctx context.Context) error

	// Stop unsubscribes and waits for the watcher goroutines to exit
	Stop(ctx context.Context) error
}

// RequestPublisher is the write side of the rebuild bus
type RequestPublisher interface {
	Publish(req RebuildRequest)
}

// RequestSource is the read side of the rebuild bus
type RequestSource interface {
	Requests() <-chan RebuildRequest
}

// PreferenceStore is a durable key-value store
//
//go:generate mockgen -destination=../settings/mocks/preference_store_mock.go -package=mocks github.com/genricoloni/movingwallpaper/internal/domain PreferenceStore
type PreferenceStore interface {
	// String returns the stored value and whether the key exists
	String(key string) (string, bool, error)

	// SetString stores value under key and persists it
	SetString(key, value string) error

	// Remove deletes key and persists the removal. Removing a missing key is not an error.
	Remove(key string) error
}

// VideoSelector is the settings store as seen by the UI and the resolver
type VideoSelector interface {
	// Get returns the custom video, or the absent reference
	Get() VideoReference

	// Set stores and persists a custom video and requests a rebuild
	Set(ref VideoReference) error

	// Clear resets to the bundled default
	Clear() error
}

// VideoResolver resolves the video to play: custom, else bundled, else none
type VideoResolver interface {
	Resolve() VideoReference
}

// StatusProvider exposes the coordinator's read-only status
type StatusProvider interface {
	Status() Status
	OnStatusChange(fn func(Status))
}

// Config defines the interface for application configuration
type Config interface {
	// GetResourceDir returns the directory searched for the bundled wallpaper
	GetResourceDir() string

	// GetSettingsPath returns the YAML file backing the preference store
	GetSettingsPath() string

	// GetSettleDelay returns the wait before reacting to a display change
	GetSettleDelay() time.Duration

	// GetLoopStrategy returns the looping strategy for new playback units
	GetLoopStrategy() LoopStrategy

	// GetResizeInPlace reports whether geometry-only changes resize surfaces in place
	GetResizeInPlace() bool

	// GetWatchVideo reports whether the custom video file is watched for removal
	GetWatchVideo() bool
}
