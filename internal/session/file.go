package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"booknest/internal/model"
)

type fileEntry struct {
	Values    map[string]string `json:"values"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// FileStore keeps sessions in a single JSON file readable only by its owner.
// It backs the terminal client, where it plays the role of browser storage.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Load(_ context.Context, sessionID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return nil, err
	}

	entry, ok := entries[sessionID]
	if !ok || !time.Now().Before(entry.ExpiresAt) {
		return nil, model.ErrSessionNotFound
	}
	return maps.Clone(entry.Values), nil
}

func (f *FileStore) Save(_ context.Context, sessionID string, values map[string]string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return err
	}
	entries[sessionID] = fileEntry{Values: maps.Clone(values), ExpiresAt: expiresAt}
	return f.writeLocked(entries)
}

func (f *FileStore) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return err
	}
	if _, ok := entries[sessionID]; !ok {
		return nil
	}
	delete(entries, sessionID)
	return f.writeLocked(entries)
}

func (f *FileStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return 0, err
	}

	var purged int64
	for id, entry := range entries {
		if !now.Before(entry.ExpiresAt) {
			delete(entries, id)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, f.writeLocked(entries)
}

func (f *FileStore) readLocked() (map[string]fileEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]fileEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	entries := map[string]fileEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return entries, nil
}

// writeLocked replaces the file through a rename so a crash never leaves a
// half-written session behind.
func (f *FileStore) writeLocked(entries map[string]fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
