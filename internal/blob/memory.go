package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore est le dépôt de blobs en mémoire des tests et du profil de
// développement.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, ref string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[ref] = buf
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, ref string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob introuvable : %s", ref)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) URL(ctx context.Context, ref string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.blobs[ref]; !ok {
		return "", fmt.Errorf("blob introuvable : %s", ref)
	}
	return "memory://" + ref, nil
}
