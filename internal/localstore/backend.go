// internal/localstore/backend.go
//
// Raw namespaced key/value storage the local store sits on, plus the
// in-memory implementation.
//
// Characteristics of the memory backend:
//   - Stores raw bytes keyed by (namespace, key) in nested maps.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process exits; used in tests and as the
//     ephemeral default.

package localstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Backend.Get for an absent (namespace, key).
var ErrNotFound = errors.New("localstore: not found")

// Backend is the raw storage interface. Implementations may be backed by
// memory (this package), a SQLite file, or anything else byte-addressable.
// Values are opaque; compression and validation live above this layer.
type Backend interface {
	// Get returns the stored value, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Put upserts the value unconditionally (last writer wins).
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Delete removes the entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// List returns a copy of every entry in the namespace.
	List(ctx context.Context, namespace string) (map[string][]byte, error)
}

// memory is the map-based Backend.
type memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // namespace → key → value
}

// NewMemoryBackend constructs an empty in-memory Backend.
func NewMemoryBackend() Backend {
	return &memory{data: make(map[string]map[string][]byte)}
}

func (m *memory) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[namespace][key]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Put(ctx context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	v := make([]byte, len(value))
	copy(v, value)
	ns[key] = v
	return nil
}

func (m *memory) Delete(ctx context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[namespace], key)
	return nil
}

func (m *memory) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data[namespace]))
	for k, v := range m.data[namespace] {
		c := make([]byte, len(v))
		copy(c, v)
		out[k] = c
	}
	return out, nil
}
