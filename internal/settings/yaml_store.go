package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// YAMLStore is a durable key-value store backed by a single YAML mapping file.
// Every mutation rewrites the file atomically.
type YAMLStore struct {
	logger *zap.Logger
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewYAMLStore creates a store at the configured settings path.
// The file is read lazily on first access.
func NewYAMLStore(logger *zap.Logger, cfg domain.Config) *YAMLStore {
	return &YAMLStore{logger: logger, path: cfg.GetSettingsPath()}
}

// Path returns the backing file
func (s *YAMLStore) Path() string {
	return s.path
}

// String returns the stored value and whether the key exists
func (s *YAMLStore) String(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return "", false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// SetString stores value under key and persists it
func (s *YAMLStore) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.saveLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and persists the removal
func (s *YAMLStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.saveLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *YAMLStore) loadLocked() error {
	if s.values != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.values = make(map[string]string)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		// Start empty so the next save replaces the unreadable file
		s.logger.Warn("Settings file is corrupt, starting with defaults",
			zap.String("path", s.path),
			zap.Error(err))
		values = make(map[string]string)
	}
	s.values = values
	return nil
}

func (s *YAMLStore) saveLocked() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
