// Package monitor watches the window system for display hot-plug and
// reconfiguration and publishes rebuild requests.
package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	mutterBusName   = "org.gnome.Mutter.DisplayConfig"
	mutterPath      = "/org/gnome/Mutter/DisplayConfig"
	mutterInterface = "org.gnome.Mutter.DisplayConfig"

	monitorsChangedSignal  = mutterInterface + ".MonitorsChanged"
	nameOwnerChangedSignal = "org.freedesktop.DBus.NameOwnerChanged"
)

// MutterMonitor listens for GNOME Mutter's MonitorsChanged signal on the session bus
type MutterMonitor struct {
	logger    *zap.Logger
	publisher domain.RequestPublisher
	newClient func() (DBusClient, error)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	conn    DBusClient     // Interface for testability
	signals chan *dbus.Signal
	wg      sync.WaitGroup // Tracks the signal goroutine
}

// NewMutterMonitor creates a monitor that connects to the session bus on Start
func NewMutterMonitor(logger *zap.Logger, publisher domain.RequestPublisher) *MutterMonitor {
	return &MutterMonitor{
		logger:    logger,
		publisher: publisher,
		newClient: func() (DBusClient, error) {
			c, err := NewStdDBusClient()
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Name identifies the watcher in logs
func (m *MutterMonitor) Name() string {
	return "mutter"
}

// Start subscribes to Mutter display signals and returns.
// Signals are processed in a goroutine until Stop.
func (m *MutterMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn, err := m.newClient()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(mutterPath),
		dbus.WithMatchInterface(mutterInterface),
		dbus.WithMatchMember("MonitorsChanged"),
	); err != nil {
		if cerr := conn.Close(); cerr != nil {
			m.logger.Warn("Failed to close D-Bus connection", zap.Error(cerr))
		}
		return fmt.Errorf("failed to add match signal: %w", err)
	}

	// Track compositor restarts so a fresh Mutter triggers a rebuild
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, mutterBusName),
	); err != nil {
		m.logger.Warn("Failed to add NameOwnerChanged match signal", zap.Error(err))
		// Non-fatal, continue without restart tracking
	}

	if owned, err := conn.NameHasOwner(mutterBusName); err != nil {
		m.logger.Debug("Could not query Mutter presence", zap.Error(err))
	} else if !owned {
		m.logger.Info("Mutter is not running, display changes will come from other watchers")
	}

	m.signals = make(chan *dbus.Signal, 10)
	conn.Signal(m.signals)
	m.conn = conn

	monitorCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.monitorSignals(monitorCtx, m.signals)

	m.logger.Info("Mutter display monitor started")
	return nil
}

// Stop gracefully stops the monitor
func (m *MutterMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()

	m.logger.Debug("Waiting for monitoring goroutine to finish")
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn.RemoveSignal(m.signals)
	if err := m.conn.Close(); err != nil {
		m.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
	m.conn = nil

	m.logger.Info("Mutter display monitor stopped")
	return nil
}

// monitorSignals listens for D-Bus signals and processes them
func (m *MutterMonitor) monitorSignals(ctx context.Context, signals <-chan *dbus.Signal) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig == nil {
				continue
			}
			m.handleSignal(sig)
		}
	}
}

// handleSignal publishes a rebuild for display changes and Mutter (re)starts
func (m *MutterMonitor) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case monitorsChangedSignal:
		if sig.Path != "" && sig.Path != mutterPath {
			return
		}
		m.logger.Info("Display configuration changed", zap.String("origin", m.Name()))
		m.publish()

	case nameOwnerChangedSignal:
		if len(sig.Body) < 3 {
			return
		}
		name, ok := sig.Body[0].(string)
		if !ok || name != mutterBusName {
			return
		}
		newOwner, _ := sig.Body[2].(string)
		if newOwner == "" {
			m.logger.Info("Mutter left the session bus")
			return
		}
		m.logger.Info("Mutter (re)started", zap.String("unique", newOwner))
		m.publish()
	}
}

func (m *MutterMonitor) publish() {
	m.publisher.Publish(domain.RebuildRequest{
		Reason: domain.ReasonDisplayConfiguration,
		Origin: m.Name(),
	})
}
