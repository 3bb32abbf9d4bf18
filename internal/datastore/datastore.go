// Package datastore provides the durable key-value persistence used by the
// history ledger: read at startup, written on every mutation.
package datastore

import (
	"sync"
	"time"
)

// Store is a durable key-value store keyed by a fixed storage name.
type Store interface {
	// Get returns the value stored under key; the bool reports presence.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases the underlying resources.
	Close() error
}

// KVRecord is one persisted key-value row.
type KVRecord struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

// MemStore is an in-memory Store for tests and for running without a
// database configured.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Get implements Store.
func (m *MemStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set implements Store.
func (m *MemStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete implements Store.
func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements Store.
func (m *MemStore) Close() error {
	return nil
}
