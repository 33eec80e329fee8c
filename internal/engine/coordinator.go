package engine

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/genricoloni/movingwallpaper/internal/playback"
	"go.uber.org/zap"
)

// maxSettleFactor caps how long a stream of display events can defer a rebuild
const maxSettleFactor = 4

// slot pairs one display surface with its playback unit (nil in fallback)
type slot struct {
	surface domain.Surface
	unit    *playback.Unit
}

// Coordinator owns every display surface and playback unit.
// It builds them on Start, rebuilds them when the rebuild bus asks for it
// and tears them down on Stop. Rebuilds are serialized by a single loop.
type Coordinator struct {
	logger   *zap.Logger
	cfg      domain.Config
	displays domain.DisplayProvider
	surfaces domain.SurfaceFactory
	media    domain.MediaFactory
	resolver domain.VideoResolver
	requests domain.RequestSource

	// buildMu serializes construction and teardown of the slots
	buildMu sync.Mutex
	slots   []slot
	video   domain.VideoReference
	descs   []domain.DisplayDescriptor

	statusMu  sync.RWMutex
	status    domain.Status
	listeners []func(domain.Status)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator creates a coordinator in the Uninitialized state
func NewCoordinator(
	logger *zap.Logger,
	cfg domain.Config,
	displays domain.DisplayProvider,
	surfaces domain.SurfaceFactory,
	media domain.MediaFactory,
	resolver domain.VideoResolver,
	requests domain.RequestSource,
) *Coordinator {
	return &Coordinator{
		logger:   logger,
		cfg:      cfg,
		displays: displays,
		surfaces: surfaces,
		media:    media,
		resolver: resolver,
		requests: requests,
		status:   domain.Status{State: domain.StateUninitialized},
	}
}

// Start builds the initial surface set synchronously, then launches the
// rebuild loop in a goroutine and returns.
func (c *Coordinator) Start(ctx context.Context) error {
	c.logger.Info("Coordinator starting...")

	c.buildMu.Lock()
	c.construct(ctx)
	c.buildMu.Unlock()

	// The fx start context expires after startup; the loop lives until Stop
	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.runLoop(loopCtx)
	return nil
}

// runLoop consumes the rebuild bus.
// Display changes are debounced by the settle delay so a burst of hot-plug
// notifications produces one rebuild against the settled configuration.
// Video selection changes rebuild immediately without cancelling a pending
// display rebuild, so surfaces always end up matching the settled displays.
func (c *Coordinator) runLoop(ctx context.Context) {
	defer close(c.done)

	requests := c.requests.Requests()

	settle := c.cfg.GetSettleDelay()
	timer := time.NewTimer(settle)
	timer.Stop() // Start with stopped timer

	pendingDisplay := false
	var pendingSince time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("Coordinator loop stopped")
			return

		case req, ok := <-requests:
			if !ok {
				c.logger.Info("Rebuild bus closed")
				return
			}

			switch req.Reason {
			case domain.ReasonDisplayConfiguration:
				c.logger.Debug("Display configuration changed, settling...",
					zap.String("origin", req.Origin),
					zap.Duration("delay", settle))
				if !pendingDisplay {
					pendingDisplay = true
					pendingSince = time.Now()
				}
				timer.Reset(settleWait(settle, pendingSince, time.Now()))

			case domain.ReasonVideoSelection:
				// A pending display change keeps settling and rebuilds again afterwards
				c.rebuild(ctx, req.Reason)

			default:
				c.logger.Warn("Ignoring unknown rebuild reason", zap.String("reason", string(req.Reason)))
			}

		case <-timer.C:
			if pendingDisplay {
				pendingDisplay = false
				c.rebuild(ctx, domain.ReasonDisplayConfiguration)
			}
		}
	}
}

// settleWait returns the delay before a pending display rebuild.
// Each event restarts the settle delay, but a burst never postpones the
// rebuild past maxSettleFactor settle delays after its first event.
func settleWait(settle time.Duration, since, now time.Time) time.Duration {
	remaining := since.Add(maxSettleFactor * settle).Sub(now)
	if remaining < 0 {
		return 0
	}
	if remaining < settle {
		return remaining
	}
	return settle
}

// rebuild replaces the surface set with one matching the current displays and video
func (c *Coordinator) rebuild(ctx context.Context, reason domain.RebuildReason) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if c.currentState() == domain.StateTornDown {
		return
	}

	c.logger.Info("Rebuilding wallpaper", zap.String("reason", string(reason)))
	c.setState(domain.StateRebuilding)

	if reason == domain.ReasonDisplayConfiguration && c.cfg.GetResizeInPlace() && c.resizeInPlace(ctx) {
		return
	}

	c.teardown()
	c.construct(ctx)
}

// construct resolves the video, enumerates displays and creates one slot per display.
// The caller holds buildMu.
func (c *Coordinator) construct(ctx context.Context) {
	ref := c.resolver.Resolve()

	descs, err := c.displays.Displays(ctx)
	if err != nil {
		c.logger.Error("Failed to enumerate displays", zap.Error(err))
		descs = nil
	}

	strategy := c.cfg.GetLoopStrategy()
	slots := make([]slot, 0, len(descs))
	for i, d := range descs {
		s, err := c.surfaces.NewSurface(ctx, d)
		if err != nil {
			c.logger.Error("Failed to create display surface, skipping display",
				zap.Uint32("display", d.ID),
				zap.Error(err))
			continue
		}
		slots = append(slots, slot{surface: s, unit: c.attach(ctx, s, ref, strategy)})
		c.logger.Debug("Surface ready",
			zap.String("display", d.Label(i)),
			zap.String("mode", string(s.Mode())))
	}

	c.slots = slots
	c.video = ref
	c.descs = descs

	c.logger.Info("Wallpaper active",
		zap.Int("displays", len(descs)),
		zap.Int("surfaces", len(slots)),
		zap.String("video", ref.Path),
		zap.String("source", string(ref.Source)))

	c.publish(domain.StateActive, descs, ref, true)
}

// attach starts playback on a surface, degrading it to the fallback color on any failure
func (c *Coordinator) attach(ctx context.Context, s domain.Surface, ref domain.VideoReference, strategy domain.LoopStrategy) *playback.Unit {
	if !ref.Present() {
		s.ShowFallback()
		return nil
	}

	m, err := c.media.NewMedia(ctx, ref, strategy)
	if err != nil {
		c.logger.Warn("Failed to load video, showing fallback",
			zap.String("path", ref.Path),
			zap.Error(err))
		s.ShowFallback()
		return nil
	}

	s.AttachPlayback(m)
	unit := playback.NewUnit(c.logger, ref, m, strategy)
	if err := unit.Start(); err != nil {
		c.logger.Warn("Failed to start playback, showing fallback",
			zap.String("path", ref.Path),
			zap.Error(err))
		unit.Stop()
		s.ShowFallback()
		return nil
	}
	return unit
}

// resizeInPlace moves existing surfaces when only display geometry changed.
// It reports false when a full rebuild is needed. The caller holds buildMu.
func (c *Coordinator) resizeInPlace(ctx context.Context) bool {
	descs, err := c.displays.Displays(ctx)
	if err != nil {
		c.logger.Warn("Failed to enumerate displays for resize, rebuilding", zap.Error(err))
		return false
	}
	if !sameDisplays(c.descs, descs) || len(c.slots) != len(descs) {
		return false
	}
	if ref := c.resolver.Resolve(); ref != c.video {
		return false
	}

	for i, d := range descs {
		c.slots[i].surface.ResizeTo(d)
	}
	c.descs = descs

	c.logger.Info("Resized surfaces in place", zap.Int("surfaces", len(descs)))
	c.publish(domain.StateActive, descs, c.video, false)
	return true
}

// sameDisplays reports whether both sets hold the same display IDs in the same order
func sameDisplays(a, b []domain.DisplayDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// teardown stops every unit before closing its surface. The caller holds buildMu.
func (c *Coordinator) teardown() {
	for _, s := range c.slots {
		if s.unit != nil {
			s.unit.Stop()
		}
		s.surface.Close()
	}
	c.slots = nil
	c.descs = nil
	c.video = domain.NoVideo
}

// Stop halts the loop and tears every surface down. The coordinator cannot be restarted.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.logger.Info("Coordinator stopping...")

	if c.cancel != nil {
		c.cancel()
		select {
		case <-c.done:
		case <-ctx.Done():
			c.logger.Warn("Timed out waiting for the rebuild loop", zap.Error(ctx.Err()))
		}
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	n := len(c.slots)
	c.teardown()
	c.publish(domain.StateTornDown, nil, domain.NoVideo, false)

	c.logger.Info("Coordinator stopped", zap.Int("surfaces", n))
	return nil
}

// Surfaces returns the active surfaces in display order
func (c *Coordinator) Surfaces() []domain.Surface {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	out := make([]domain.Surface, len(c.slots))
	for i, s := range c.slots {
		out[i] = s.surface
	}
	return out
}

// Status returns a snapshot of the coordinator state
func (c *Coordinator) Status() domain.Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return copyStatus(c.status)
}

// OnStatusChange registers fn to run after every build, resize and teardown.
// fn runs on the coordinator goroutine and must not block.
func (c *Coordinator) OnStatusChange(fn func(domain.Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Coordinator) currentState() domain.CoordinatorState {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status.State
}

func (c *Coordinator) setState(state domain.CoordinatorState) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.State = state
}

// publish replaces the status snapshot and notifies listeners.
// built increments the generation counter.
func (c *Coordinator) publish(state domain.CoordinatorState, descs []domain.DisplayDescriptor, ref domain.VideoReference, built bool) {
	labels := make([]string, len(descs))
	for i, d := range descs {
		labels[i] = d.Label(i)
	}

	c.statusMu.Lock()
	gen := c.status.Generation
	if built {
		gen++
	}
	c.status = domain.Status{
		State:        state,
		DisplayCount: len(descs),
		Displays:     labels,
		HasVideo:     ref.Present(),
		Video:        ref,
		Generation:   gen,
	}
	snapshot := copyStatus(c.status)
	listeners := append([]func(domain.Status){}, c.listeners...)
	c.statusMu.Unlock()

	for _, fn := range listeners {
		fn(copyStatus(snapshot))
	}
}

func copyStatus(s domain.Status) domain.Status {
	s.Displays = append([]string(nil), s.Displays...)
	return s
}
