// Package settings holds the user's custom video choice and persists it.
package settings

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

// CustomVideoKey is the preference key holding the custom video as a file URL
const CustomVideoKey = "customVideoURL"

// Store is the single source of truth for the user's chosen video file
type Store struct {
	logger    *zap.Logger
	prefs     domain.PreferenceStore
	publisher domain.RequestPublisher

	mu        sync.RWMutex
	current   domain.VideoReference
	listeners []func(domain.VideoReference)
}

// NewStore creates the store and loads the persisted reference.
// A reference whose file no longer exists is dropped from durable storage.
func NewStore(logger *zap.Logger, prefs domain.PreferenceStore, pub domain.RequestPublisher) *Store {
	s := &Store{
		logger:    logger,
		prefs:     prefs,
		publisher: pub,
		current:   domain.NoVideo,
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.prefs.String(CustomVideoKey)
	if err != nil {
		s.logger.Warn("Failed to read saved video, using default", zap.Error(err))
		return
	}
	if !ok || raw == "" {
		return
	}

	path, err := DecodeReference(raw)
	if err != nil {
		s.logger.Warn("Saved video reference is malformed, clearing it",
			zap.String("value", raw),
			zap.Error(err))
		s.removePersisted()
		return
	}

	if !fileExists(path) {
		s.logger.Info("Saved video no longer exists, clearing it", zap.String("path", path))
		s.removePersisted()
		return
	}

	s.current = domain.VideoReference{Path: path, Source: domain.SourceCustom}
	s.logger.Info("Loaded custom video", zap.String("path", path))
}

// Get returns the custom video or the absent reference.
// A held reference whose file has disappeared is discarded first.
func (s *Store) Get() domain.VideoReference {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()

	if !cur.Present() || fileExists(cur.Path) {
		return cur
	}

	s.mu.Lock()
	stale := s.current == cur
	if stale {
		s.current = domain.NoVideo
	}
	s.mu.Unlock()

	if stale {
		s.logger.Info("Custom video disappeared, discarding it", zap.String("path", cur.Path))
		s.removePersisted()
	}
	return domain.NoVideo
}

// Set stores ref, persists it and requests a rebuild.
// The in-memory value and the rebuild request are applied even when persistence fails;
// the persistence error is returned.
func (s *Store) Set(ref domain.VideoReference) error {
	if ref.Present() {
		abs, err := filepath.Abs(ref.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve video path: %w", err)
		}
		ref = domain.VideoReference{Path: abs, Source: domain.SourceCustom}
	} else {
		ref = domain.NoVideo
	}

	s.mu.Lock()
	s.current = ref
	listeners := append([]func(domain.VideoReference){}, s.listeners...)
	s.mu.Unlock()

	var persistErr error
	if ref.Present() {
		persistErr = s.prefs.SetString(CustomVideoKey, EncodeReference(ref.Path))
	} else {
		persistErr = s.prefs.Remove(CustomVideoKey)
	}
	if persistErr != nil {
		s.logger.Warn("Failed to persist video selection",
			zap.String("path", ref.Path),
			zap.Error(persistErr))
		persistErr = fmt.Errorf("failed to persist video selection: %w", persistErr)
	} else {
		s.logger.Info("Video selection saved",
			zap.String("path", ref.Path),
			zap.String("source", string(ref.Source)))
	}

	s.publisher.Publish(domain.RebuildRequest{
		Reason: domain.ReasonVideoSelection,
		Origin: "settings",
	})
	for _, fn := range listeners {
		fn(ref)
	}

	return persistErr
}

// Clear resets the selection to the bundled default
func (s *Store) Clear() error {
	return s.Set(domain.NoVideo)
}

// Subscribe registers fn to be called with the new value after every Set or Clear
func (s *Store) Subscribe(fn func(domain.VideoReference)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) removePersisted() {
	if err := s.prefs.Remove(CustomVideoKey); err != nil {
		s.logger.Warn("Failed to remove stale video preference", zap.Error(err))
	}
}

// EncodeReference turns an absolute path into the persisted file URL form
func EncodeReference(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// DecodeReference accepts a file URL or an absolute path
func DecodeReference(raw string) (string, error) {
	// Plain paths are taken verbatim: they may hold characters that are not valid URL escapes
	if !strings.HasPrefix(raw, "file:") && filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid reference: %w", err)
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("file reference has no path")
		}
		return filepath.FromSlash(u.Path), nil
	case "":
		if !filepath.IsAbs(raw) {
			return "", fmt.Errorf("reference %q is not absolute", raw)
		}
		return filepath.Clean(raw), nil
	default:
		return "", fmt.Errorf("unsupported reference scheme %q", u.Scheme)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
