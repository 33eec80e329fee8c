//go:build linux
// +build linux

package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"
)

// randrMask selects screen, CRTC and output change notifications
const randrMask = randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange

// RandRMonitor listens for XRandR notifications on the root window
type RandRMonitor struct {
	logger    *zap.Logger
	publisher domain.RequestPublisher

	mu      sync.Mutex
	running bool
	conn    *xgb.Conn
	wg      sync.WaitGroup
}

// NewRandRMonitor creates a monitor that opens its own X connection on Start
func NewRandRMonitor(logger *zap.Logger, publisher domain.RequestPublisher) *RandRMonitor {
	return &RandRMonitor{
		logger:    logger,
		publisher: publisher,
	}
}

// Name identifies the watcher in logs
func (m *RandRMonitor) Name() string {
	return "randr"
}

// Start selects RandR events on the root window and returns
func (m *RandRMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return fmt.Errorf("randr init failed: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	if err := randr.SelectInputChecked(conn, root, randrMask).Check(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to select RandR events: %w", err)
	}

	m.conn = conn
	m.running = true

	m.wg.Add(1)
	go m.readEvents(conn)

	m.logger.Info("RandR display monitor started")
	return nil
}

// readEvents runs until the connection is closed
func (m *RandRMonitor) readEvents(conn *xgb.Conn) {
	defer m.wg.Done()

	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			m.logger.Debug("X error while watching displays", zap.String("error", xerr.Error()))
			continue
		}
		if !isDisplayEvent(ev) {
			continue
		}

		m.logger.Info("Display configuration changed",
			zap.String("origin", m.Name()),
			zap.String("event", fmt.Sprintf("%T", ev)))
		m.publisher.Publish(domain.RebuildRequest{
			Reason: domain.ReasonDisplayConfiguration,
			Origin: m.Name(),
		})
	}
}

// isDisplayEvent reports whether ev describes a display configuration change
func isDisplayEvent(ev xgb.Event) bool {
	switch ev.(type) {
	case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		return true
	default:
		return false
	}
}

// Stop closes the connection, which ends the event loop
func (m *RandRMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	conn.Close()
	m.wg.Wait()

	m.logger.Info("RandR display monitor stopped")
	return nil
}
