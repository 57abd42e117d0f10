package ecs

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped in *AccessError) when an ID has no live object.
var ErrNotFound = errors.New("entity not found")

// AccessError reports a lookup against a stale, deleted or out-of-range ID.
type AccessError struct {
	ID EntityID
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("entity %s: %v", e.ID, ErrNotFound)
}

func (e *AccessError) Unwrap() error { return ErrNotFound }

// Storage is a dense slot array of T addressed by generational IDs.
// Slots are reused lowest-first; reuse bumps the generation so IDs issued
// for the previous occupant stop resolving.
//
// Game logic must mutate through an Observation so observers stay in sync.
// GetMut exists for observers maintaining their own linkage components.
//
// Values live in fixed-size pages that are never moved, so a pointer handed
// out by Get stays valid across later spawns.
type Storage[T any] struct {
	pool  *EntityPool
	pages []*[pageSize]T
}

const pageSize = 256

func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{
		pool:  NewEntityPool(),
		pages: make([]*[pageSize]T, 0, 4),
	}
}

func (s *Storage[T]) slot(idx uint32) *T {
	return &s.pages[idx/pageSize][idx%pageSize]
}

// Spawn stores v in the lowest free slot and returns its ID.
func (s *Storage[T]) Spawn(v T) EntityID {
	id := s.pool.Create()
	idx := id.Index()
	if int(idx/pageSize) == len(s.pages) {
		s.pages = append(s.pages, new([pageSize]T))
	}
	*s.slot(idx) = v
	return id
}

// Delete removes and returns the object behind id.
func (s *Storage[T]) Delete(id EntityID) (T, bool) {
	var zero T
	if !s.pool.Alive(id) {
		return zero, false
	}
	p := s.slot(id.Index())
	v := *p
	*p = zero
	s.pool.Destroy(id)
	return v, true
}

// Get returns the object for read access. Callers must not write through it.
func (s *Storage[T]) Get(id EntityID) (*T, bool) {
	if !s.pool.Alive(id) {
		return nil, false
	}
	return s.slot(id.Index()), true
}

// GetMut returns the object for write access without notifying observers.
func (s *Storage[T]) GetMut(id EntityID) (*T, bool) {
	return s.Get(id)
}

// Lookup is Get with an error for callers that propagate failures.
func (s *Storage[T]) Lookup(id EntityID) (*T, error) {
	v, ok := s.Get(id)
	if !ok {
		return nil, &AccessError{ID: id}
	}
	return v, nil
}

func (s *Storage[T]) Alive(id EntityID) bool {
	return s.pool.Alive(id)
}

// IDAt returns the live ID in slot idx, for dense iteration over 0..Capacity().
func (s *Storage[T]) IDAt(idx int) (EntityID, bool) {
	if idx < 0 {
		return Nil, false
	}
	return s.pool.Current(uint32(idx))
}

// Capacity is one past the highest slot ever used.
func (s *Storage[T]) Capacity() int {
	return s.pool.HighWater()
}

func (s *Storage[T]) Len() int {
	return s.pool.Len()
}

// Each visits every live object in slot order. Read-only.
func (s *Storage[T]) Each(fn func(EntityID, *T)) {
	for i := 0; i < s.Capacity(); i++ {
		if id, ok := s.pool.Current(uint32(i)); ok {
			fn(id, s.slot(uint32(i)))
		}
	}
}

// IDs snapshots the live IDs in slot order.
func (s *Storage[T]) IDs() []EntityID {
	ids := make([]EntityID, 0, s.Len())
	for i := 0; i < s.Capacity(); i++ {
		if id, ok := s.pool.Current(uint32(i)); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
