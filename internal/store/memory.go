package store

import (
	"context"
	"sync"

	"github.com/agentstation/launchsync/internal/matcher"
	"github.com/agentstation/launchsync/pkg/catalog"
)

// Memory is a mutex-guarded Repository that keeps insertion order.
type Memory[T catalog.Keyed] struct {
	mu    sync.RWMutex
	keys  []string
	items map[string]T
}

// NewMemory returns an empty Memory repository.
func NewMemory[T catalog.Keyed]() *Memory[T] {
	return &Memory[T]{items: map[string]T{}}
}

// FindAll implements Repository.
func (m *Memory[T]) FindAll(context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out, nil
}

// FindByKey implements Repository.
func (m *Memory[T]) FindByKey(_ context.Context, key string) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[matcher.Key(key)]
	return e, ok, nil
}

// Save implements Repository. An entity with the same folded name is replaced.
func (m *Memory[T]) Save(_ context.Context, entity T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := matcher.Key(entity.Key())
	if _, ok := m.items[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.items[k] = entity
	return entity, nil
}

// Len returns the number of stored entities.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
