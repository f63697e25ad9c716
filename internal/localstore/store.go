// Package localstore is a small file-backed key-value store used by the
// trainer client: every key is persisted as a JSON file under the store root.
// It is the always-available side of the sync layer, so read/write failures
// are reported as indicators, never panics.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Storage keys used by the trainer client.
const (
	KeySettings    = "kegel_settings"
	KeyRecords     = "kegel_records"
	KeyReminders   = "kegel_reminders"
	KeySyncEnabled = "sync_enabled"
	KeyUserID      = "kegel_user_id"
)

type Store struct {
	mu       sync.Mutex
	rootPath string
}

func NewStore(rootPath string) (*Store, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{rootPath: rootPath}, nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.rootPath, key+".json")
}

// Get reads the value stored under key into out. The second return value is
// false when the key is absent; out is left untouched in that case, so the
// caller's default survives.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read key %q: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, replacing any previous value. Returns whether
// the write succeeded.
func (s *Store) Set(key string, value interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		log.Errorf("localstore: marshal key %q: %s", key, err)
		return false
	}

	// write to a temp file first, so a failed write never clobbers the
	// previous value
	tmpPath := s.keyPath(key) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		log.Errorf("localstore: write key %q: %s", key, err)
		return false
	}
	if err := os.Rename(tmpPath, s.keyPath(key)); err != nil {
		log.Errorf("localstore: rename key %q: %s", key, err)
		return false
	}
	return true
}

func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Errorf("localstore: remove key %q: %s", key, err)
	}
}
