package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore keeps every item in a single JSON document on disk.
type JSONStore struct {
	path  string
	mu    sync.Mutex
	items map[string]string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.Init()
	}
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	items := make(map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save must be called with mu held.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) GetItem(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		return "", false, fmt.Errorf("storage not loaded")
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *JSONStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.items[key] = value
	return s.save()
}

func (s *JSONStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		return fmt.Errorf("storage not loaded")
	}
	delete(s.items, key)
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
