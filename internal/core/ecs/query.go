package ecs

// Accessor reads one component off an object. Systems written against
// accessors work for any object layout that carries the component.
type Accessor[T, C any] func(*T) *C

// Each1 mutates component C on every live object through the observation.
func Each1[T, C any](o *Observation[T], c Accessor[T, C], fn func(EntityID, *C)) {
	o.MutateEach(func(id EntityID, v *T) {
		fn(id, c(v))
	})
}

// Each2 mutates components A and B on every live object through the observation.
func Each2[T, A, B any](o *Observation[T], a Accessor[T, A], b Accessor[T, B], fn func(EntityID, *A, *B)) {
	o.MutateEach(func(id EntityID, v *T) {
		fn(id, a(v), b(v))
	})
}

// Read1 visits component C on every live object without notifying observers.
func Read1[T, C any](s *Storage[T], c Accessor[T, C], fn func(EntityID, *C)) {
	s.Each(func(id EntityID, v *T) {
		fn(id, c(v))
	})
}

// Component fetches component C of id for read access.
func Component[T, C any](s *Storage[T], c Accessor[T, C], id EntityID) (*C, bool) {
	v, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return c(v), true
}
