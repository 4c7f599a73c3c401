package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileStore persists an AppConfig as YAML.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, log: log}
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the stored configuration. A missing file yields an error
// matching fs.ErrNotExist.
func (f *FileStore) Load() (AppConfig, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read profiles: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse profiles %s: %w", f.path, err)
	}
	return cfg, nil
}

// Save writes cfg atomically: temp file + rename.
func (f *FileStore) Save(cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create profiles temp: %w", err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0644)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write profiles temp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename profiles: %w", err)
	}
	return nil
}

// LoadInto loads the stored configuration into s. When nothing has been
// stored yet, s gets the built-in profiles and they are saved.
func (f *FileStore) LoadInto(s *Store) error {
	cfg, err := f.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.InitDefaults(); err != nil {
			return err
		}
		snap, err := s.Snapshot()
		if err != nil {
			return err
		}
		return f.Save(snap)
	case err != nil:
		return err
	}
	if err := s.Load(cfg); err != nil {
		return err
	}
	return s.InitDefaults()
}

// SaveFrom persists the current contents of s.
func (f *FileStore) SaveFrom(s *Store) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	return f.Save(snap)
}

// Watch calls fn with the freshly loaded configuration whenever the file
// changes on disk, until ctx is done. Bursts of events are coalesced.
func (f *FileStore) Watch(ctx context.Context, fn func(AppConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: Save replaces the file by rename.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(50 * time.Millisecond)

		case <-debounce.C:
			cfg, err := f.Load()
			if err != nil {
				f.log.Warn("reload profiles", zap.String("path", f.path), zap.Error(err))
				continue
			}
			fn(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("profile watcher error", zap.Error(err))
		}
	}
}
