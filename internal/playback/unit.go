// Package playback drives looping, muted playback of one media handle.
package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// Unit is the playback unit bound to one surface and one video reference.
//
// With LoopSeamless the media loops natively and the unit only starts and stops it.
// With LoopRestart the unit owns the loop driver: every end-of-stream seeks back to
// the first frame and resumes.
type Unit struct {
	logger   *zap.Logger
	media    domain.Media
	ref      domain.VideoReference
	strategy domain.LoopStrategy

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	restarts int
}

// NewUnit binds a media handle to a reference
func NewUnit(logger *zap.Logger, ref domain.VideoReference, media domain.Media, strategy domain.LoopStrategy) *Unit {
	return &Unit{
		logger:   logger.With(zap.String("video", ref.Name())),
		media:    media,
		ref:      ref,
		strategy: strategy,
	}
}

// Reference returns the bound video
func (u *Unit) Reference() domain.VideoReference {
	return u.ref
}

// Strategy returns the loop strategy chosen at construction
func (u *Unit) Strategy() domain.LoopStrategy {
	return u.strategy
}

// Media returns the platform handle
func (u *Unit) Media() domain.Media {
	return u.media
}

// Start begins playback and, for LoopRestart, the loop driver
func (u *Unit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.running {
		return nil
	}

	if err := u.media.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	u.running = true

	if u.strategy == domain.LoopRestart {
		ctx, cancel := context.WithCancel(context.Background())
		u.cancel = cancel
		u.wg.Add(1)
		go u.loop(ctx)
	}

	u.logger.Debug("Playback started", zap.String("strategy", string(u.strategy)))
	return nil
}

// loop restarts the media from the beginning on every end-of-stream
func (u *Unit) loop(ctx context.Context) {
	defer u.wg.Done()

	ended := u.media.Ended()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ended:
			if !ok {
				return
			}
			if err := u.media.SeekToStart(); err != nil {
				u.logger.Warn("Failed to rewind video", zap.Error(err))
				continue
			}
			if err := u.media.Play(); err != nil {
				u.logger.Warn("Failed to restart video", zap.Error(err))
				continue
			}

			u.mu.Lock()
			u.restarts++
			n := u.restarts
			u.mu.Unlock()
			u.logger.Debug("Video looped", zap.Int("restarts", n))
		}
	}
}

// Restarts returns how many times the loop driver rewound the media
func (u *Unit) Restarts() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.restarts
}

// Running reports whether Start succeeded and Stop has not been called
func (u *Unit) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

// Stop halts playback, disables the loop driver and releases the media.
// It must run before the owning surface is closed.
func (u *Unit) Stop() {
	u.mu.Lock()
	wasRunning := u.running
	u.running = false
	cancel := u.cancel
	u.cancel = nil
	u.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	u.wg.Wait()

	if wasRunning {
		u.media.Pause()
	}
	u.media.Close()
	u.logger.Debug("Playback stopped")
}
