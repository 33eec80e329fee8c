package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// FileWatcher clears the custom video when its file is deleted or moved away
// while the application is running
type FileWatcher struct {
	logger  *zap.Logger
	store   *Store
	enabled bool

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	watcher  *fsnotify.Watcher
	retarget chan string
	dir      string // directory currently watched
	target   string // file currently tracked
}

// NewFileWatcher creates a watcher for the store's custom video
func NewFileWatcher(logger *zap.Logger, cfg domain.Config, store *Store) *FileWatcher {
	fw := &FileWatcher{
		logger:   logger,
		store:    store,
		enabled:  cfg.GetWatchVideo(),
		retarget: make(chan string, 1),
	}
	store.Subscribe(func(ref domain.VideoReference) {
		fw.requestRetarget(ref.Path)
	})
	return fw
}

// Start begins watching the current custom video
func (fw *FileWatcher) Start(ctx context.Context) error {
	if !fw.enabled {
		fw.logger.Info("Custom video watching disabled")
		return nil
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.watcher = w
	fw.running = true

	loopCtx, cancel := context.WithCancel(context.Background())
	fw.cancel = cancel

	fw.watch(fw.store.Get().Path)

	fw.wg.Add(1)
	go fw.run(loopCtx)

	fw.logger.Info("Custom video watcher started")
	return nil
}

// Stop ends watching and releases the inotify/kqueue handle
func (fw *FileWatcher) Stop(ctx context.Context) error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.cancel()
	fw.mu.Unlock()

	fw.wg.Wait()

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Warn("Failed to close file watcher", zap.Error(err))
	}
	fw.logger.Info("Custom video watcher stopped")
	return nil
}

// requestRetarget queues the newest path, replacing any queued one
func (fw *FileWatcher) requestRetarget(path string) {
	select {
	case fw.retarget <- path:
		return
	default:
	}
	select {
	case <-fw.retarget:
	default:
	}
	select {
	case fw.retarget <- path:
	default:
	}
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer fw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case path := <-fw.retarget:
			fw.watch(path)

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(ev)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handleEvent(ev fsnotify.Event) {
	if fw.target == "" || filepath.Clean(ev.Name) != fw.target {
		return
	}
	if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	// Editors and downloaders often replace files with a rename
	if fileExists(fw.target) {
		return
	}

	fw.logger.Info("Custom video was removed, reverting to default",
		zap.String("path", fw.target),
		zap.String("op", ev.Op.String()))

	fw.target = ""
	if err := fw.store.Clear(); err != nil {
		fw.logger.Warn("Failed to clear removed video", zap.Error(err))
	}
}

// watch moves the directory watch to the parent of path; an empty path stops watching
func (fw *FileWatcher) watch(path string) {
	dir := ""
	if path != "" {
		path = filepath.Clean(path)
		dir = filepath.Dir(path)
	}
	fw.target = path

	if dir == fw.dir {
		return
	}
	if fw.dir != "" {
		if err := fw.watcher.Remove(fw.dir); err != nil {
			fw.logger.Debug("Failed to remove directory watch", zap.String("dir", fw.dir), zap.Error(err))
		}
		fw.dir = ""
	}
	if dir == "" {
		return
	}
	if err := fw.watcher.Add(dir); err != nil {
		fw.logger.Warn("Failed to watch video directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	fw.dir = dir
	fw.logger.Debug("Watching custom video", zap.String("path", path))
}
