package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Repository. Records are copied on the way in and
// out, so callers never share state with the store.
type Memory[T Record[T]] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewMemory returns an empty Memory repository.
func NewMemory[T Record[T]]() *Memory[T] {
	return &Memory[T]{items: make(map[string]T)}
}

// Get implements Repository.
func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return rec.Clone(), nil
}

// Put implements Repository.
func (m *Memory[T]) Put(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := rec.RecordID()
	if _, ok := m.items[id]; !ok {
		m.order = append(m.order, id)
	}
	m.items[id] = rec.Clone()
	return nil
}

// Delete implements Repository.
func (m *Memory[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return nil
}

// List implements Repository.
func (m *Memory[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id].Clone())
	}
	return out, nil
}
