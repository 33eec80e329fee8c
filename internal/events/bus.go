package events

import (
	"time"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const busCapacity = 16

// Bus is the single rebuild-request channel shared by display watchers and the
// settings store, consumed by the coordinator loop
type Bus struct {
	logger   *zap.Logger
	requests chan domain.RebuildRequest
	dropWarn rate.Sometimes
}

// NewBus creates an empty rebuild bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger:   logger,
		requests: make(chan domain.RebuildRequest, busCapacity),
		dropWarn: rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Publish enqueues a request without blocking.
// A full bus drops the request: every rebuild re-queries displays and re-resolves
// the video, so the pending requests already cover it.
func (b *Bus) Publish(req domain.RebuildRequest) {
	if req.At.IsZero() {
		req.At = time.Now()
	}

	select {
	case b.requests <- req:
		b.logger.Debug("Rebuild requested",
			zap.String("reason", string(req.Reason)),
			zap.String("origin", req.Origin))
	default:
		b.dropWarn.Do(func() {
			b.logger.Warn("Rebuild bus full, dropping request",
				zap.String("reason", string(req.Reason)),
				zap.String("origin", req.Origin))
		})
	}
}

// Requests returns the consumer side of the bus
func (b *Bus) Requests() <-chan domain.RebuildRequest {
	return b.requests
}
