package events

import (
	"testing"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_PublishStampsAndDelivers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Publish(domain.RebuildRequest{Reason: domain.ReasonVideoSelection, Origin: "settings"})

	select {
	case req := <-bus.Requests():
		assert.Equal(t, domain.ReasonVideoSelection, req.Reason)
		assert.Equal(t, "settings", req.Origin)
		assert.False(t, req.At.IsZero())
	default:
		t.Fatal("expected a queued request")
	}
}

func TestBus_FullBusDropsWithoutBlocking(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bus := NewBus(zap.New(core))

	for i := 0; i < busCapacity+5; i++ {
		bus.Publish(domain.RebuildRequest{Reason: domain.ReasonDisplayConfiguration, Origin: "test"})
	}

	assert.Len(t, bus.Requests(), busCapacity)
	// Warnings are rate limited to one per interval
	assert.Equal(t, 1, logs.FilterMessage("Rebuild bus full, dropping request").Len())
}
