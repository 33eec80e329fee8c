//go:build linux
// +build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"
)

// desktopAtoms are the EWMH hints that keep a window on the desktop layer
type desktopAtoms struct {
	windowType  xproto.Atom
	typeDesktop xproto.Atom
	state       xproto.Atom
	below       xproto.Atom
	sticky      xproto.Atom
	skipTaskbar xproto.Atom
	skipPager   xproto.Atom
}

func internDesktopAtoms(conn *xgb.Conn) (desktopAtoms, error) {
	names := []string{
		"_NET_WM_WINDOW_TYPE",
		"_NET_WM_WINDOW_TYPE_DESKTOP",
		"_NET_WM_STATE",
		"_NET_WM_STATE_BELOW",
		"_NET_WM_STATE_STICKY",
		"_NET_WM_STATE_SKIP_TASKBAR",
		"_NET_WM_STATE_SKIP_PAGER",
	}

	atoms := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return desktopAtoms{}, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		atoms[i] = reply.Atom
	}

	return desktopAtoms{
		windowType:  atoms[0],
		typeDesktop: atoms[1],
		state:       atoms[2],
		below:       atoms[3],
		sticky:      atoms[4],
		skipTaskbar: atoms[5],
		skipPager:   atoms[6],
	}, nil
}

// atomList encodes atoms as a 32-bit property payload
func atomList(atoms ...xproto.Atom) []byte {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		xgb.Put32(buf[i*4:], uint32(a))
	}
	return buf
}

// x11Surface is an unmanaged-looking desktop window covering one display
type x11Surface struct {
	logger *zap.Logger
	conn   *xgb.Conn
	wid    xproto.Window

	mu     sync.Mutex
	desc   domain.DisplayDescriptor
	mode   domain.SurfaceMode
	closed bool
}

// NewSurface creates a hidden desktop window at the display frame
func (b *Backend) NewSurface(ctx context.Context, d domain.DisplayDescriptor) (domain.Surface, error) {
	f := d.Frame
	if f.Width < 1 || f.Height < 1 {
		return nil, fmt.Errorf("display %d has an empty frame", d.ID)
	}

	wid, err := xproto.NewWindowId(b.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = xproto.CreateWindowChecked(b.conn, b.screen.RootDepth, wid, b.screen.Root,
		int16(f.X), int16(f.Y), uint16(f.Width), uint16(f.Height), 0,
		xproto.WindowClassInputOutput, b.screen.RootVisual,
		xproto.CwBackPixel, []uint32{fallbackPixel()}).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	a := b.atoms
	hints := []struct {
		property xproto.Atom
		values   []xproto.Atom
	}{
		{a.windowType, []xproto.Atom{a.typeDesktop}},
		{a.state, []xproto.Atom{a.below, a.sticky, a.skipTaskbar, a.skipPager}},
	}
	for _, h := range hints {
		err := xproto.ChangePropertyChecked(b.conn, xproto.PropModeReplace, wid, h.property,
			xproto.AtomAtom, 32, uint32(len(h.values)), atomList(h.values...)).Check()
		if err != nil {
			xproto.DestroyWindow(b.conn, wid)
			return nil, fmt.Errorf("failed to set desktop hints: %w", err)
		}
	}

	// An empty input region lets clicks fall through to the desktop
	if b.shapeOK {
		shape.Rectangles(b.conn, shape.SoSet, shape.SkInput, xproto.ClipOrderingUnsorted, wid, 0, 0, nil)
	}

	b.logger.Debug("Surface created",
		zap.Uint32("display", d.ID),
		zap.Uint32("window", uint32(wid)))

	return &x11Surface{
		logger: b.logger,
		conn:   b.conn,
		wid:    wid,
		desc:   d,
		mode:   domain.ModeHidden,
	}, nil
}

func (s *x11Surface) Descriptor() domain.DisplayDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

func (s *x11Surface) Mode() domain.SurfaceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// AttachPlayback hands the window to mpv as its render target
func (s *x11Surface) AttachPlayback(m domain.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	mm, ok := m.(*mpvMedia)
	if !ok {
		s.logger.Warn("Unsupported media handle, showing fallback", zap.String("type", fmt.Sprintf("%T", m)))
		s.paintFallbackLocked()
		return
	}

	mm.bind(uint32(s.wid))
	s.orderBackLocked()
	s.mode = domain.ModePlayback
}

func (s *x11Surface) ShowFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.paintFallbackLocked()
}

func (s *x11Surface) paintFallbackLocked() {
	xproto.ChangeWindowAttributes(s.conn, s.wid, xproto.CwBackPixel, []uint32{fallbackPixel()})
	s.orderBackLocked()
	xproto.ClearArea(s.conn, false, s.wid, 0, 0, 0, 0)
	s.mode = domain.ModeFallback
}

// orderBackLocked maps the window below every other window
func (s *x11Surface) orderBackLocked() {
	xproto.MapWindow(s.conn, s.wid)
	xproto.ConfigureWindow(s.conn, s.wid, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeBelow})
}

// ResizeTo moves the window. mpv follows its parent window size.
func (s *x11Surface) ResizeTo(d domain.DisplayDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	f := d.Frame
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{
		uint32(int32(f.X)),
		uint32(int32(f.Y)),
		uint32(f.Width),
		uint32(f.Height),
	}
	if err := xproto.ConfigureWindowChecked(s.conn, s.wid, mask, values).Check(); err != nil {
		s.logger.Warn("Failed to resize surface", zap.Uint32("display", d.ID), zap.Error(err))
		return
	}
	s.desc = d
}

func (s *x11Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	xproto.UnmapWindow(s.conn, s.wid)
	xproto.DestroyWindow(s.conn, s.wid)
	s.mode = domain.ModeHidden
}
