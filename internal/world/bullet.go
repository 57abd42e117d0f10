package world

import (
	"github.com/l1jgo/shipcore/internal/core/ecs"
)

// Bullet is the side-table record for a bullet ship.
type Bullet struct {
	Shooter  ecs.EntityID
	Damage   int32
	Life     float64 // seconds remaining
	Speed    float64
	Homing   bool
	TurnRate float64
	Range    float64
	Target   ecs.EntityID // Nil until a homing bullet acquires one
}

// Bullets tracks live bullets and their homing targets. As a deletion
// observer it forgets removed bullets and clears Target on every bullet
// chasing a removed ship.
type Bullets struct {
	ecs.NopObserver[Ship]
	byID    map[ecs.EntityID]*Bullet
	chasers map[ecs.EntityID]map[ecs.EntityID]struct{}
}

func NewBullets() *Bullets {
	return &Bullets{
		byID:    make(map[ecs.EntityID]*Bullet),
		chasers: make(map[ecs.EntityID]map[ecs.EntityID]struct{}),
	}
}

func (b *Bullets) Add(id ecs.EntityID, info Bullet) {
	info.Target = ecs.Nil
	b.byID[id] = &info
}

func (b *Bullets) Get(id ecs.EntityID) (*Bullet, bool) {
	info, ok := b.byID[id]
	return info, ok
}

func (b *Bullets) Len() int { return len(b.byID) }

// IDs lists the live bullets in slot order.
func (b *Bullets) IDs(s *ecs.Storage[Ship]) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(b.byID))
	for _, id := range s.IDs() {
		if _, ok := b.byID[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetTarget records that bullet id now chases target (Nil to stop).
func (b *Bullets) SetTarget(id, target ecs.EntityID) {
	info, ok := b.byID[id]
	if !ok {
		return
	}
	b.untrack(id, info.Target)
	info.Target = target
	if target == ecs.Nil {
		return
	}
	set := b.chasers[target]
	if set == nil {
		set = make(map[ecs.EntityID]struct{})
		b.chasers[target] = set
	}
	set[id] = struct{}{}
}

func (b *Bullets) untrack(id, target ecs.EntityID) {
	if target == ecs.Nil {
		return
	}
	if set := b.chasers[target]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(b.chasers, target)
		}
	}
}

func (b *Bullets) OnDelete(_ *ecs.Storage[Ship], id ecs.EntityID) {
	if info, ok := b.byID[id]; ok {
		b.untrack(id, info.Target)
		delete(b.byID, id)
	}
	for chaser := range b.chasers[id] {
		if info, ok := b.byID[chaser]; ok {
			info.Target = ecs.Nil
		}
	}
	delete(b.chasers, id)
}
