package ecs

// SpawnObserver is notified after an object has been inserted.
type SpawnObserver[T any] interface {
	OnSpawn(s *Storage[T], id EntityID)
}

// MutationObserver is notified after an object has been changed.
type MutationObserver[T any] interface {
	OnMutation(s *Storage[T], id EntityID)
}

// DeletionObserver is notified before an object is removed, while it can
// still be read.
type DeletionObserver[T any] interface {
	OnDelete(s *Storage[T], id EntityID)
}

// Observer maintains a side table that must track every change to a Storage.
type Observer[T any] interface {
	SpawnObserver[T]
	MutationObserver[T]
	DeletionObserver[T]
}

// NopObserver is embedded by observers that only care about some events.
type NopObserver[T any] struct{}

func (NopObserver[T]) OnSpawn(*Storage[T], EntityID)    {}
func (NopObserver[T]) OnMutation(*Storage[T], EntityID) {}
func (NopObserver[T]) OnDelete(*Storage[T], EntityID)   {}

// ObserverFuncs adapts plain functions; nil fields are skipped.
type ObserverFuncs[T any] struct {
	Spawn  func(*Storage[T], EntityID)
	Mutate func(*Storage[T], EntityID)
	Delete func(*Storage[T], EntityID)
}

func (f ObserverFuncs[T]) OnSpawn(s *Storage[T], id EntityID) {
	if f.Spawn != nil {
		f.Spawn(s, id)
	}
}

func (f ObserverFuncs[T]) OnMutation(s *Storage[T], id EntityID) {
	if f.Mutate != nil {
		f.Mutate(s, id)
	}
}

func (f ObserverFuncs[T]) OnDelete(s *Storage[T], id EntityID) {
	if f.Delete != nil {
		f.Delete(s, id)
	}
}

// Registry is an ordered composite observer. Every event is delivered to
// every member, unconditionally, in registration order.
type Registry[T any] struct {
	observers []Observer[T]
}

func NewRegistry[T any](observers ...Observer[T]) *Registry[T] {
	r := &Registry[T]{
		observers: make([]Observer[T], 0, len(observers)+4),
	}
	r.observers = append(r.observers, observers...)
	return r
}

// Register appends an observer after the existing ones.
func (r *Registry[T]) Register(o Observer[T]) {
	r.observers = append(r.observers, o)
}

func (r *Registry[T]) Len() int { return len(r.observers) }

func (r *Registry[T]) OnSpawn(s *Storage[T], id EntityID) {
	for _, o := range r.observers {
		o.OnSpawn(s, id)
	}
}

func (r *Registry[T]) OnMutation(s *Storage[T], id EntityID) {
	for _, o := range r.observers {
		o.OnMutation(s, id)
	}
}

func (r *Registry[T]) OnDelete(s *Storage[T], id EntityID) {
	for _, o := range r.observers {
		o.OnDelete(s, id)
	}
}
