package keystore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pairjournal/internal/common"
)

// MemoryStore is a process-local Store. Values are copied on the way in and
// out so callers can wipe their buffers freely.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return common.CloneBytes(v), nil
}

func (m *MemoryStore) Put(ctx context.Context, path string, value []byte) error {
	if err := Validate(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[path] = common.CloneBytes(value)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := Validate(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, path)
	return nil
}

// Len returns the number of stored paths.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Snapshot returns a copy of the whole store, keyed by path.
func (m *MemoryStore) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = common.CloneBytes(v)
	}
	return out
}
