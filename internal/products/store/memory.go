package store

import (
	"context"
	"sync"

	"inventory-manager/internal/products"
)

// MemoryStore is an in-memory inventory used by tests. It records how many
// times Save was called.
type MemoryStore struct {
	mu        sync.Mutex
	inventory []products.Product
	saves     int

	LoadErr error
	SaveErr error
}

func NewMemory(seed ...products.Product) *MemoryStore {
	return &MemoryStore{inventory: append([]products.Product{}, seed...)}
}

func (m *MemoryStore) Load(_ context.Context) ([]products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]products.Product{}, m.inventory...), nil
}

func (m *MemoryStore) Save(_ context.Context, inventory []products.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.inventory = append([]products.Product{}, inventory...)
	m.saves++
	return nil
}

func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Health() error {
	return nil
}
