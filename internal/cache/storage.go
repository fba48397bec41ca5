package cache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Storage keeps values by id.
type Storage[T any] interface {
	Save(id uuid.UUID, val T) error
	Get(id uuid.UUID) (T, error)
	Update(id uuid.UUID, val T) error
	Delete(id uuid.UUID) error
}

// MemoryStorage is an in-memory Storage bounded to a number of entries;
// once full, the oldest entry is evicted on Save.
type MemoryStorage[T any] struct {
	mu      sync.RWMutex
	limit   int
	order   []uuid.UUID
	entries map[uuid.UUID]T
}

func NewMemoryStorage[T any](limit int) *MemoryStorage[T] {
	return &MemoryStorage[T]{limit: limit, entries: map[uuid.UUID]T{}}
}

func (s *MemoryStorage[T]) Save(id uuid.UUID, val T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return fmt.Errorf("entry %s already exists", id)
	}
	if s.limit > 0 && len(s.order) >= s.limit {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
	s.entries[id] = val
	s.order = append(s.order, id)
	return nil
}

func (s *MemoryStorage[T]) Get(id uuid.UUID) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.entries[id]
	if !ok {
		return val, fmt.Errorf("no entry found for %s", id)
	}
	return val, nil
}

func (s *MemoryStorage[T]) Update(id uuid.UUID, val T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("no entry found for %s", id)
	}
	s.entries[id] = val
	return nil
}

func (s *MemoryStorage[T]) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("no entry found for %s", id)
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
