package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// recordingPublisher collects published requests
type recordingPublisher struct {
	mu       sync.Mutex
	requests []domain.RebuildRequest
}

func (p *recordingPublisher) Publish(req domain.RebuildRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *recordingPublisher) last() domain.RebuildRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

// TestHandleSignal consolidates accepted and ignored signals into a table test
func TestHandleSignal(t *testing.T) {
	tests := []struct {
		name    string
		signal  *dbus.Signal
		publish bool
	}{
		{
			name: "MonitorsChanged",
			signal: &dbus.Signal{
				Name: monitorsChangedSignal,
				Path: mutterPath,
			},
			publish: true,
		},
		{
			name: "MonitorsChanged on foreign path",
			signal: &dbus.Signal{
				Name: monitorsChangedSignal,
				Path: "/org/example/Other",
			},
			publish: false,
		},
		{
			name: "Mutter restarted",
			signal: &dbus.Signal{
				Name: nameOwnerChangedSignal,
				Body: []interface{}{mutterBusName, ":1.10", ":1.42"},
			},
			publish: true,
		},
		{
			name: "Mutter left the bus",
			signal: &dbus.Signal{
				Name: nameOwnerChangedSignal,
				Body: []interface{}{mutterBusName, ":1.10", ""},
			},
			publish: false,
		},
		{
			name: "Other service owner change",
			signal: &dbus.Signal{
				Name: nameOwnerChangedSignal,
				Body: []interface{}{"org.example.Service", "", ":1.99"},
			},
			publish: false,
		},
		{
			name: "Short NameOwnerChanged body",
			signal: &dbus.Signal{
				Name: nameOwnerChangedSignal,
				Body: []interface{}{mutterBusName},
			},
			publish: false,
		},
		{
			name: "Unrelated signal",
			signal: &dbus.Signal{
				Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
				Body: []interface{}{},
			},
			publish: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			mon := NewMutterMonitor(zap.NewNop(), pub)

			mon.handleSignal(tt.signal)

			if tt.publish {
				if pub.count() != 1 {
					t.Fatalf("Expected one rebuild request, got %d", pub.count())
				}
				req := pub.last()
				if req.Reason != domain.ReasonDisplayConfiguration {
					t.Errorf("Reason: expected %s, got %s", domain.ReasonDisplayConfiguration, req.Reason)
				}
				if req.Origin != "mutter" {
					t.Errorf("Origin: expected mutter, got %s", req.Origin)
				}
			} else if pub.count() != 0 {
				t.Errorf("Should NOT publish for this signal, got %d requests", pub.count())
			}
		})
	}
}

func TestStopWithoutStart(t *testing.T) {
	mon := NewMutterMonitor(zap.NewNop(), &recordingPublisher{})
	if err := mon.Stop(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	connects := 0
	mon := NewMutterMonitor(zap.NewNop(), &recordingPublisher{})
	mon.newClient = func() (DBusClient, error) {
		connects++
		return &noopDBusClient{}, nil
	}

	for i := 0; i < 2; i++ {
		if err := mon.Start(context.Background()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if connects != 1 {
		t.Errorf("Expected one connection, got %d", connects)
	}
	if err := mon.Stop(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

// noopDBusClient is a stub for tests that do not need call expectations
type noopDBusClient struct{}

func (n *noopDBusClient) Close() error                             { return nil }
func (n *noopDBusClient) AddMatchSignal(...dbus.MatchOption) error { return nil }
func (n *noopDBusClient) Signal(chan<- *dbus.Signal)               {}
func (n *noopDBusClient) RemoveSignal(chan<- *dbus.Signal)         {}
func (n *noopDBusClient) NameHasOwner(string) (bool, error)        { return false, nil }
