//go:build darwin && cgo

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// Backend renders surfaces as desktop-level NSWindows hosting AVPlayerLayers
type Backend struct {
	logger *zap.Logger
}

// NewBackend creates the AppKit backend
func NewBackend(logger *zap.Logger) (*Backend, error) {
	return &Backend{logger: logger}, nil
}

// Displays enumerates NSScreen.screens in AppKit global coordinates
func (b *Backend) Displays(ctx context.Context) ([]domain.DisplayDescriptor, error) {
	screens := appkitScreens()
	descs := make([]domain.DisplayDescriptor, 0, len(screens))
	for _, s := range screens {
		descs = append(descs, domain.DisplayDescriptor{
			ID:    s.id,
			Frame: domain.Rect{X: s.x, Y: s.y, Width: s.width, Height: s.height},
			Scale: s.scale,
		})
	}
	return descs, nil
}

// Close is a no-op; AppKit objects are released by their owners
func (b *Backend) Close() error {
	return nil
}

// appkitSurface owns one retained NSWindow
type appkitSurface struct {
	logger *zap.Logger
	handle uintptr

	mu     sync.Mutex
	desc   domain.DisplayDescriptor
	mode   domain.SurfaceMode
	closed bool
}

// NewSurface creates a hidden borderless window at the desktop level
func (b *Backend) NewSurface(ctx context.Context, d domain.DisplayDescriptor) (domain.Surface, error) {
	f := d.Frame
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("display %d has an empty frame", d.ID)
	}

	h := appkitWindowCreate(f.X, f.Y, f.Width, f.Height)
	if h == 0 {
		return nil, fmt.Errorf("failed to create window for display %d", d.ID)
	}

	return &appkitSurface{
		logger: b.logger,
		handle: h,
		desc:   d,
		mode:   domain.ModeHidden,
	}, nil
}

func (s *appkitSurface) Descriptor() domain.DisplayDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

func (s *appkitSurface) Mode() domain.SurfaceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *appkitSurface) AttachPlayback(m domain.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	am, ok := m.(*avMedia)
	if !ok {
		s.logger.Warn("Unsupported media handle, showing fallback", zap.String("type", fmt.Sprintf("%T", m)))
		appkitWindowShowFallback(s.handle, domain.FallbackWhite)
		s.mode = domain.ModeFallback
		return
	}

	appkitWindowAttach(s.handle, am.handle)
	s.mode = domain.ModePlayback
}

func (s *appkitSurface) ShowFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	appkitWindowShowFallback(s.handle, domain.FallbackWhite)
	s.mode = domain.ModeFallback
}

func (s *appkitSurface) ResizeTo(d domain.DisplayDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	f := d.Frame
	appkitWindowSetFrame(s.handle, f.X, f.Y, f.Width, f.Height)
	s.desc = d
}

func (s *appkitSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	appkitWindowClose(s.handle)
	s.mode = domain.ModeHidden
}

// avMedia owns a retained AVPlayer (plus AVPlayerLooper for seamless loops)
type avMedia struct {
	handle uintptr
	token  uintptr
	ended  chan struct{}

	mu     sync.Mutex
	closed bool
}

var (
	mediaMu    sync.Mutex
	mediaNext  uintptr
	mediaByTok = map[uintptr]*avMedia{}
)

// NewMedia creates a muted AVPlayer for ref
func (b *Backend) NewMedia(ctx context.Context, ref domain.VideoReference, strategy domain.LoopStrategy) (domain.Media, error) {
	if _, err := os.Stat(ref.Path); err != nil {
		return nil, fmt.Errorf("video unavailable: %w", err)
	}

	mediaMu.Lock()
	mediaNext++
	m := &avMedia{token: mediaNext, ended: make(chan struct{}, 1)}
	mediaByTok[m.token] = m
	mediaMu.Unlock()

	m.handle = appkitMediaCreate(ref.Path, strategy == domain.LoopSeamless, m.token)
	if m.handle == 0 {
		forgetMedia(m.token)
		return nil, fmt.Errorf("AVFoundation rejected %s", ref.Name())
	}
	return m, nil
}

// mediaEnded routes an end-of-stream notification to its media without blocking
func mediaEnded(token uintptr) {
	mediaMu.Lock()
	m := mediaByTok[token]
	mediaMu.Unlock()
	if m == nil {
		return
	}
	select {
	case m.ended <- struct{}{}:
	default:
	}
}

func forgetMedia(token uintptr) {
	mediaMu.Lock()
	defer mediaMu.Unlock()
	delete(mediaByTok, token)
}

func (m *avMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("media is closed")
	}
	appkitMediaPlay(m.handle)
	return nil
}

func (m *avMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		appkitMediaPause(m.handle)
	}
}

func (m *avMedia) SeekToStart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("media is closed")
	}
	appkitMediaSeekToStart(m.handle)
	return nil
}

func (m *avMedia) Ended() <-chan struct{} {
	return m.ended
}

func (m *avMedia) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	forgetMedia(m.token)
	appkitMediaClose(m.handle)
}
