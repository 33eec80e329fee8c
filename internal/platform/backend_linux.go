//go:build linux
// +build linux

package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// mpvBinary is the player used to render video into surface windows
const mpvBinary = "mpv"

// Backend renders surfaces as X11 desktop windows and plays video through mpv
type Backend struct {
	logger  *zap.Logger
	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	atoms   desktopAtoms
	shapeOK bool
	player  string
}

// NewBackend connects to the X server named by $DISPLAY
func NewBackend(logger *zap.Logger) (*Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	atoms, err := internDesktopAtoms(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	b := &Backend{
		logger: logger,
		conn:   conn,
		screen: xproto.Setup(conn).DefaultScreen(conn),
		atoms:  atoms,
	}

	if err := shape.Init(conn); err != nil {
		logger.Warn("SHAPE extension unavailable, surfaces will intercept clicks", zap.Error(err))
	} else {
		b.shapeOK = true
	}

	if path, err := exec.LookPath(mpvBinary); err == nil {
		b.player = path
		logger.Info("Video player detected", zap.String("binary", path))
	} else {
		logger.Warn("mpv not found in PATH, surfaces will show the fallback background")
	}

	return b, nil
}

// Displays enumerates active X11 displays. X11 reports pixels, so Scale is 1.
func (b *Backend) Displays(ctx context.Context) ([]domain.DisplayDescriptor, error) {
	n := screenshot.NumActiveDisplays()
	descs := make([]domain.DisplayDescriptor, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		if bounds.Empty() {
			continue
		}
		descs = append(descs, domain.DisplayDescriptor{
			ID:    uint32(i),
			Frame: domain.FromImageRect(bounds),
			Scale: 1,
		})
	}
	return descs, nil
}

// NewMedia prepares an mpv process for ref. It starts when the media is
// attached to a surface and played.
func (b *Backend) NewMedia(ctx context.Context, ref domain.VideoReference, strategy domain.LoopStrategy) (domain.Media, error) {
	if b.player == "" {
		return nil, fmt.Errorf("cannot play %s: %w", ref.Name(), ErrNoPlayer)
	}
	if _, err := os.Stat(ref.Path); err != nil {
		return nil, fmt.Errorf("video unavailable: %w", err)
	}
	return newMPVMedia(b.logger, b.player, ref, strategy), nil
}

// Close releases the X server connection
func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}
