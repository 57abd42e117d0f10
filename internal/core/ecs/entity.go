package ecs

import (
	"container/heap"
	"fmt"
)

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

// Nil is the "no entity" value. It never passes Alive.
const Nil EntityID = ^EntityID(0)

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsNil() bool        { return id == Nil }

func (id EntityID) String() string {
	if id == Nil {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", id.Index(), id.Generation())
}

// freeList is a min-heap of released slot indices so Create always hands out
// the lowest free slot.
type freeList []uint32

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *freeList) Push(x any)        { *f = append(*f, x.(uint32)) }
func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

// EntityPool manages entity allocation with generational indices and a free list.
type EntityPool struct {
	generations []uint32
	live        []bool
	free        freeList
	nextIndex   uint32
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 1024),
		live:        make([]bool, 0, 1024),
		free:        make(freeList, 0, 256),
	}
}

func (p *EntityPool) Create() EntityID {
	if p.free.Len() > 0 {
		idx := heap.Pop(&p.free).(uint32)
		p.live[idx] = true
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 0)
	p.live = append(p.live, true)
	return NewEntityID(idx, 0)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.live[idx] && p.generations[idx] == id.Generation()
}

// Destroy releases the slot and bumps its generation. Stale IDs are ignored.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.generations[idx]++
	p.live[idx] = false
	heap.Push(&p.free, idx)
	return true
}

// Current returns the live ID occupying slot idx, if any.
func (p *EntityPool) Current(idx uint32) (EntityID, bool) {
	if idx >= p.nextIndex || !p.live[idx] {
		return Nil, false
	}
	return NewEntityID(idx, p.generations[idx]), true
}

// HighWater is one past the highest slot ever handed out.
func (p *EntityPool) HighWater() int { return int(p.nextIndex) }

// Len is the number of live entities.
func (p *EntityPool) Len() int { return int(p.nextIndex) - p.free.Len() }
