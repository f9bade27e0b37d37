package store

import (
	"context"
	"slices"
	"sync"
)

type MemoryBlob struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{data: map[string][]byte{}}
}

func (b *MemoryBlob) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	raw, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(raw), nil
}

func (b *MemoryBlob) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = slices.Clone(data)
	return nil
}
