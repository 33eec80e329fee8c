//go:build linux
// +build linux

package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// mpvArgs builds the command line that renders path into window wid,
// muted and scaled to fill the window
func mpvArgs(path string, wid uint32, strategy domain.LoopStrategy) []string {
	args := []string{
		"--wid=" + strconv.FormatUint(uint64(wid), 10),
		"--mute=yes",
		"--no-audio",
		"--panscan=1.0",
		"--no-osc",
		"--no-osd-bar",
		"--no-input-default-bindings",
		"--input-vo-keyboard=no",
		"--hwdec=auto",
		"--really-quiet",
	}

	// Restart lets mpv exit at end-of-stream so the playback unit rewinds it
	if strategy == domain.LoopSeamless {
		args = append(args, "--loop-file=inf")
	} else {
		args = append(args, "--keep-open=no")
	}

	return append(args, "--", path)
}

// mpvMedia is one mpv child process rendering into a surface window
type mpvMedia struct {
	logger   *zap.Logger
	binary   string
	ref      domain.VideoReference
	strategy domain.LoopStrategy
	ended    chan struct{}

	mu     sync.Mutex
	wid    uint32
	cmd    *exec.Cmd
	exited chan struct{}
	paused bool
	closed bool
}

func newMPVMedia(logger *zap.Logger, binary string, ref domain.VideoReference, strategy domain.LoopStrategy) *mpvMedia {
	return &mpvMedia{
		logger:   logger.With(zap.String("video", ref.Name())),
		binary:   binary,
		ref:      ref,
		strategy: strategy,
		ended:    make(chan struct{}, 1),
	}
}

// bind sets the window mpv renders into
func (m *mpvMedia) bind(wid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wid = wid
}

// Play launches mpv, or resumes it when paused
func (m *mpvMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("media is closed")
	}
	if m.wid == 0 {
		return errors.New("media is not attached to a surface")
	}

	if m.cmd != nil {
		if m.paused {
			if err := m.cmd.Process.Signal(syscall.SIGCONT); err != nil {
				return fmt.Errorf("failed to resume mpv: %w", err)
			}
			m.paused = false
		}
		return nil
	}

	args := mpvArgs(m.ref.Path, m.wid, m.strategy)
	m.logger.Debug("Launching mpv", zap.String("binary", m.binary), zap.Strings("args", args))

	cmd := exec.Command(m.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch mpv: %w", err)
	}

	m.cmd = cmd
	m.paused = false
	m.exited = make(chan struct{})
	go m.wait(cmd, m.exited)
	return nil
}

// wait reaps the process. A clean exit that nobody asked for is end-of-stream.
func (m *mpvMedia) wait(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)

	m.mu.Lock()
	current := m.cmd == cmd
	if current {
		m.cmd = nil
	}
	m.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		m.logger.Warn("mpv exited unexpectedly", zap.Error(err))
		return
	}

	select {
	case m.ended <- struct{}{}:
	default:
	}
}

// Pause stops the mpv process without killing it
func (m *mpvMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil || m.paused {
		return
	}
	if err := m.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		m.logger.Warn("Failed to pause mpv", zap.Error(err))
		return
	}
	m.paused = true
}

// SeekToStart discards the running process. The next Play starts at the first frame.
func (m *mpvMedia) SeekToStart() error {
	m.kill()
	return nil
}

func (m *mpvMedia) Ended() <-chan struct{} {
	return m.ended
}

func (m *mpvMedia) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.kill()
}

// kill terminates the current process, if any, and waits for it to be reaped
func (m *mpvMedia) kill() {
	m.mu.Lock()
	cmd, exited := m.cmd, m.exited
	m.cmd = nil
	m.paused = false
	m.mu.Unlock()

	if cmd == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		m.logger.Debug("mpv already gone", zap.Error(err))
	}
	<-exited
}
