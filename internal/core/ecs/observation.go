package ecs

// Observation is the only sanctioned way to change a Storage. Every spawn,
// mutation and deletion is forwarded to the observers so side tables never
// drift from the objects they index.
//
// Spawn and mutation are reported after the storage changed. Deletion is
// reported before, so observers can still read the departing object.
type Observation[T any] struct {
	storage  *Storage[T]
	spawn    SpawnObserver[T]
	mutation MutationObserver[T]
	deletion DeletionObserver[T]
}

// NewObservation routes every event to o.
func NewObservation[T any](s *Storage[T], o Observer[T]) *Observation[T] {
	return &Observation[T]{storage: s, spawn: o, mutation: o, deletion: o}
}

// NewSplitObservation routes mutations to a narrower observer than the one
// used for spawn and delete.
func NewSplitObservation[T any](s *Storage[T], mutation MutationObserver[T], lifecycle Observer[T]) *Observation[T] {
	return &Observation[T]{storage: s, spawn: lifecycle, mutation: mutation, deletion: lifecycle}
}

// Storage exposes the wrapped storage for reads.
func (o *Observation[T]) Storage() *Storage[T] { return o.storage }

func (o *Observation[T]) Get(id EntityID) (*T, bool) { return o.storage.Get(id) }

func (o *Observation[T]) Spawn(v T) EntityID {
	id := o.storage.Spawn(v)
	o.spawn.OnSpawn(o.storage, id)
	return id
}

// Mutate runs fn against the object and then notifies. It returns false
// without calling fn when id is stale.
func (o *Observation[T]) Mutate(id EntityID, fn func(*T)) bool {
	v, ok := o.storage.GetMut(id)
	if !ok {
		return false
	}
	fn(v)
	o.mutation.OnMutation(o.storage, id)
	return true
}

// MutateEach mutates every object live when the pass starts, in slot order.
// Objects spawned by fn are not visited, even when they reuse a slot freed
// earlier in the pass.
func (o *Observation[T]) MutateEach(fn func(EntityID, *T)) {
	for _, id := range o.storage.IDs() {
		v, ok := o.storage.GetMut(id)
		if !ok {
			continue
		}
		fn(id, v)
		// fn may have deleted the object through this observation.
		if o.storage.Alive(id) {
			o.mutation.OnMutation(o.storage, id)
		}
	}
}

// Delete notifies and then removes the object.
func (o *Observation[T]) Delete(id EntityID) (T, bool) {
	if !o.storage.Alive(id) {
		var zero T
		return zero, false
	}
	o.deletion.OnDelete(o.storage, id)
	return o.storage.Delete(id)
}

// Retain deletes every object for which keep returns false and reports the
// number removed.
func (o *Observation[T]) Retain(keep func(EntityID, *T) bool) int {
	removed := 0
	n := o.storage.Capacity()
	for i := 0; i < n; i++ {
		id, ok := o.storage.IDAt(i)
		if !ok {
			continue
		}
		v, _ := o.storage.Get(id)
		if keep(id, v) {
			continue
		}
		if _, ok := o.Delete(id); ok {
			removed++
		}
	}
	return removed
}
