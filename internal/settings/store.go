// Package settings persists the player's preferences in a key-value store.
package settings

import (
	"context"
	"fmt"
	"sync"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key, or *NotFoundError.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// NotFoundError indicates that no value is stored under Key.
type NotFoundError struct {
	Key string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("setting not found: key=%q", e.Key)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", &NotFoundError{Key: key}
	}
	return v, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
