package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/genricoloni/movingwallpaper/internal/monitor/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// TestMutterMonitor_Start covers connection setup:
// 1. Success, signals flow to the publisher
// 2. Match rule failure closes the connection
// 3. Restart tracking is optional
func TestMutterMonitor_Start(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*mocks.MockDBusClient, *chan<- *dbus.Signal)
		expectError bool
	}{
		{
			name: "Success - Subscribed",
			setupMock: func(m *mocks.MockDBusClient, captured *chan<- *dbus.Signal) {
				m.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
				m.EXPECT().NameHasOwner(mutterBusName).Return(true, nil)
				m.EXPECT().Signal(gomock.Any()).Do(func(ch chan<- *dbus.Signal) { *captured = ch })
				m.EXPECT().RemoveSignal(gomock.Any())
				m.EXPECT().Close().Return(nil)
			},
			expectError: false,
		},
		{
			name: "Failure - MonitorsChanged match rejected",
			setupMock: func(m *mocks.MockDBusClient, _ *chan<- *dbus.Signal) {
				m.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("access denied"))
				m.EXPECT().Close().Return(nil)
			},
			expectError: true,
		},
		{
			name: "Success - Without restart tracking",
			setupMock: func(m *mocks.MockDBusClient, captured *chan<- *dbus.Signal) {
				gomock.InOrder(
					m.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
					m.EXPECT().AddMatchSignal(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("bad rule")),
				)
				m.EXPECT().NameHasOwner(mutterBusName).Return(false, fmt.Errorf("bus error"))
				m.EXPECT().Signal(gomock.Any()).Do(func(ch chan<- *dbus.Signal) { *captured = ch })
				m.EXPECT().RemoveSignal(gomock.Any())
				m.EXPECT().Close().Return(nil)
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := mocks.NewMockDBusClient(ctrl)
			var captured chan<- *dbus.Signal
			tt.setupMock(mockClient, &captured)

			pub := &recordingPublisher{}
			mon := NewMutterMonitor(zap.NewNop(), pub)
			mon.newClient = func() (DBusClient, error) { return mockClient, nil }

			err := mon.Start(context.Background())
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			// Deliver a signal through the registered channel
			captured <- &dbus.Signal{Name: monitorsChangedSignal, Path: mutterPath}

			deadline := time.After(time.Second)
			for pub.count() == 0 {
				select {
				case <-deadline:
					t.Fatal("Timeout: rebuild was not requested")
				case <-time.After(5 * time.Millisecond):
				}
			}
			if got := pub.last().Reason; got != domain.ReasonDisplayConfiguration {
				t.Errorf("Reason: expected %s, got %s", domain.ReasonDisplayConfiguration, got)
			}

			if err := mon.Stop(context.Background()); err != nil {
				t.Errorf("Unexpected error on stop: %v", err)
			}
		})
	}
}

func TestMutterMonitor_ConnectFailure(t *testing.T) {
	mon := NewMutterMonitor(zap.NewNop(), &recordingPublisher{})
	mon.newClient = func() (DBusClient, error) { return nil, fmt.Errorf("no session bus") }

	if err := mon.Start(context.Background()); err == nil {
		t.Fatal("Expected error, got nil")
	}
	// A failed start leaves nothing to stop
	if err := mon.Stop(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
