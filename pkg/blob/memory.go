package blob

import (
	"context"
	"errors"
	"path"
	"sync"
)

// ErrNotFound is returned by Get for unknown blob paths.
var ErrNotFound = errors.New("blob not found")

// MemoryStore is an in-memory Store for tests and local development without
// object-store credentials.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	blobPath := path.Join("memory", key)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[blobPath] = append([]byte(nil), data...)
	return blobPath, nil
}

func (m *MemoryStore) Get(_ context.Context, blobPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[blobPath]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, blobPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, blobPath)
	return nil
}
