package ecs

// World is the top-level container. It owns the storage, the two observer
// registries and a deferred destruction queue flushed by CleanupSystem each tick.
//
// The hot registry receives per-tick mutations and should only hold the
// spatial index. The full registry receives spawns and deletions.
type World[T any] struct {
	storage      *Storage[T]
	hot          *Registry[T]
	full         *Registry[T]
	obs          *Observation[T]
	destroyQueue []EntityID
}

func NewWorld[T any]() *World[T] {
	w := &World[T]{
		storage:      NewStorage[T](),
		hot:          NewRegistry[T](),
		full:         NewRegistry[T](),
		destroyQueue: make([]EntityID, 0, 64),
	}
	w.obs = NewSplitObservation[T](w.storage, w.hot, w.full)
	return w
}

func (w *World[T]) Storage() *Storage[T] { return w.storage }

// Observe returns the observation every system mutates through.
func (w *World[T]) Observe() *Observation[T] { return w.obs }

// Register adds an observer to the spawn/delete path, and to the per-tick
// mutation path when hot is set.
func (w *World[T]) Register(o Observer[T], hot bool) {
	w.full.Register(o)
	if hot {
		w.hot.Register(o)
	}
}

func (w *World[T]) Alive(id EntityID) bool {
	return w.storage.Alive(id)
}

// MarkForDestruction queues an object for end-of-tick cleanup.
func (w *World[T]) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending is the number of queued destructions.
func (w *World[T]) Pending() int { return len(w.destroyQueue) }

// FlushDestroyQueue deletes every queued object through the observation.
// Observers may queue further objects while it runs; those are drained in the
// same flush. Stale or duplicate entries are skipped.
func (w *World[T]) FlushDestroyQueue() int {
	destroyed := 0
	for len(w.destroyQueue) > 0 {
		batch := w.destroyQueue
		w.destroyQueue = make([]EntityID, 0, cap(batch))
		for _, id := range batch {
			if _, ok := w.obs.Delete(id); ok {
				destroyed++
			}
		}
	}
	return destroyed
}
