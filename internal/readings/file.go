package readings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

const (
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp"
	FilePermissions = 0644
)

// FileStore keeps readings in memory and writes them to a JSON file after
// every change
type FileStore struct {
	path string

	mu       sync.RWMutex
	readings map[string]Reading
	now      func() time.Time
}

// OpenFileStore loads the readings file. A missing file starts empty.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, readings: make(map[string]Reading), now: time.Now}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info(subsystem, "No readings file at %s, starting empty", path)
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.readings); err != nil {
		return nil, fmt.Errorf("parse readings file %s: %w", path, err)
	}
	if s.readings == nil {
		s.readings = make(map[string]Reading)
	}
	return s, nil
}

// Path returns the readings file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Update(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	for name, value := range values {
		s.readings[name] = Reading{Value: value, Time: ts}
	}
	return s.saveLocked()
}

func (s *FileStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[name]
	return r.Value, ok, nil
}

func (s *FileStore) Delete(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for name := range s.readings {
		if Match(pattern, name) {
			delete(s.readings, name)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	return s.saveLocked()
}

func (s *FileStore) Snapshot(_ context.Context) (map[string]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.readings), nil
}

// saveLocked writes the readings to a temp file, copies the previous file to
// the backup and renames the temp file over the readings file (caller must
// hold lock). A failed write leaves the readings file untouched.
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.readings, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.path + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return err
	}

	if previous, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+BackupSuffix, previous, FilePermissions); err != nil {
			logging.Warn(subsystem, "Failed to create backup: %v", err)
		}
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}
	return nil
}
