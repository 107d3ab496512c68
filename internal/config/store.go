package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ahmad66-rgb/upscaler/internal/logging"
)

// Store owns the single live Config for the process lifetime. Mutation goes
// through Update; everything else gets value snapshots.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a settings store backed by the file at path. The store
// starts with defaults; call Load to pick up persisted settings.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: logging.GetLogger("config"),
		cfg:    Default(),
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted document if present. A missing file keeps
// defaults and is not an error. A document that fails to parse also keeps
// defaults; the parse error is returned so the caller can warn, but the
// store remains fully usable.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	cfg, err := FromDocument(data)
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	return nil
}

// Save persists the current configuration. The document is written to a
// temp file and renamed into place so a crash mid-write cannot corrupt the
// previous file. Failure to persist is returned, never raised.
func (s *Store) Save() error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	data, err := cfg.ToDocument()
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// Config returns a value snapshot of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn to the live configuration under the store's lock.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
}

// replace swaps in a freshly loaded configuration. Used by the watcher.
func (s *Store) replace(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}
