package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMedia records calls and lets the test signal end-of-stream
type fakeMedia struct {
	mu       sync.Mutex
	ended    chan struct{}
	plays    int
	seeks    int
	pauses   int
	closed   bool
	playErr  error
	position time.Duration
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{ended: make(chan struct{})}
}

func (m *fakeMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.plays++
	return nil
}

func (m *fakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
}

func (m *fakeMedia) SeekToStart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks++
	m.position = 0
	return nil
}

func (m *fakeMedia) Ended() <-chan struct{} { return m.ended }

func (m *fakeMedia) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *fakeMedia) counts() (plays, seeks, pauses int, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays, m.seeks, m.pauses, m.closed
}

var clip = domain.VideoReference{Path: "/videos/clip.mp4", Source: domain.SourceCustom}

func TestUnit_RestartLoopsIndefinitely(t *testing.T) {
	media := newFakeMedia()
	u := NewUnit(zap.NewNop(), clip, media, domain.LoopRestart)
	require.NoError(t, u.Start())

	const loops = 25
	for i := 0; i < loops; i++ {
		select {
		case media.ended <- struct{}{}:
		case <-time.After(time.Second):
			t.Fatalf("loop driver stopped consuming end-of-stream after %d loops", i)
		}
	}

	require.Eventually(t, func() bool { return u.Restarts() == loops }, time.Second, 5*time.Millisecond)
	assert.True(t, u.Running())

	plays, seeks, _, closed := media.counts()
	assert.Equal(t, loops+1, plays, "initial play plus one per loop")
	assert.Equal(t, loops, seeks)
	assert.False(t, closed)

	u.Stop()
}

func TestUnit_SeamlessHasNoLoopDriver(t *testing.T) {
	media := newFakeMedia()
	u := NewUnit(zap.NewNop(), clip, media, domain.LoopSeamless)
	require.NoError(t, u.Start())

	select {
	case media.ended <- struct{}{}:
		t.Fatal("seamless unit should not consume end-of-stream notifications")
	case <-time.After(50 * time.Millisecond):
	}

	u.Stop()
	plays, seeks, pauses, closed := media.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 0, seeks)
	assert.Equal(t, 1, pauses)
	assert.True(t, closed)
}

func TestUnit_StopDisablesLoopDriver(t *testing.T) {
	media := newFakeMedia()
	u := NewUnit(zap.NewNop(), clip, media, domain.LoopRestart)
	require.NoError(t, u.Start())

	u.Stop()
	assert.False(t, u.Running())

	select {
	case media.ended <- struct{}{}:
		t.Fatal("loop driver still running after Stop")
	case <-time.After(50 * time.Millisecond):
	}

	_, _, pauses, closed := media.counts()
	assert.Equal(t, 1, pauses)
	assert.True(t, closed)
}

func TestUnit_StartFailure(t *testing.T) {
	media := newFakeMedia()
	media.playErr = errors.New("decoder unavailable")
	u := NewUnit(zap.NewNop(), clip, media, domain.LoopRestart)

	err := u.Start()
	require.Error(t, err)
	assert.False(t, u.Running())

	// Releasing a unit that never started still closes the media without pausing
	u.Stop()
	_, _, pauses, closed := media.counts()
	assert.Equal(t, 0, pauses)
	assert.True(t, closed)
}

func TestUnit_StartIsIdempotent(t *testing.T) {
	media := newFakeMedia()
	u := NewUnit(zap.NewNop(), clip, media, domain.LoopSeamless)

	require.NoError(t, u.Start())
	require.NoError(t, u.Start())

	plays, _, _, _ := media.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, clip, u.Reference())
	assert.Equal(t, domain.LoopSeamless, u.Strategy())
	u.Stop()
}
