package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/spatial"
)

// ErrNoPlayer is returned when the player slot is empty.
var ErrNoPlayer = errors.New("player ship missing")

// State is the simulated world: ship storage plus the side tables kept in
// sync with it. Single-goroutine access only (game loop).
type State struct {
	World       *ecs.World[Ship]
	Grid        *spatial.SquareMap[Ship]
	Attachments *Attachments
	Bullets     *Bullets
	player      ecs.EntityID
}

// NewState builds an empty world. The grid sees every mutation; attachments
// and bullets only spawns and deletions.
func NewState(grid spatial.Config) (*State, error) {
	w := ecs.NewWorld[Ship]()
	sq, err := spatial.New[Ship](grid, PositionOf, NodeOf)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	s := &State{
		World:       w,
		Grid:        sq,
		Attachments: NewAttachments(w.MarkForDestruction),
		Bullets:     NewBullets(),
		player:      ecs.Nil,
	}
	w.Register(sq, true)
	w.Register(s.Attachments, false)
	w.Register(s.Bullets, false)
	return s, nil
}

func (s *State) Storage() *ecs.Storage[Ship] { return s.World.Storage() }

func (s *State) Observe() *ecs.Observation[Ship] { return s.World.Observe() }

// Spawn builds a ship from bp. Ships may only be placed inside the grid.
func (s *State) Spawn(bp Blueprint, team component.Team, pos geom.Vec2, rotation float64) (ecs.EntityID, error) {
	if _, ok := s.Grid.Square(pos); !ok {
		return ecs.Nil, fmt.Errorf("spawn %s at (%.1f, %.1f): %w", bp.Name, pos.X, pos.Y, spatial.ErrOutOfBounds)
	}
	return s.Observe().Spawn(bp.Build(team, pos, rotation)), nil
}

// SpawnPlayer places the player ship. It must be the first ship spawned so
// it owns slot 0 for the life of the world.
func (s *State) SpawnPlayer(bp Blueprint, pos geom.Vec2) (ecs.EntityID, error) {
	if s.player != ecs.Nil {
		return ecs.Nil, fmt.Errorf("spawn player: already spawned as %s", s.player)
	}
	if s.Storage().Capacity() != 0 {
		return ecs.Nil, fmt.Errorf("spawn player: world already holds ships")
	}
	bp.Routine = ai.NoRoutine
	id, err := s.Spawn(bp, component.TeamPlayer, pos, 0)
	if err != nil {
		return ecs.Nil, err
	}
	s.player = id
	return id, nil
}

// Player returns the player ship.
func (s *State) Player() (ecs.EntityID, *Ship, bool) {
	v, ok := s.Storage().Get(s.player)
	if !ok {
		return ecs.Nil, nil, false
	}
	return s.player, v, true
}

// PlayerID is the player's ID, or Nil before SpawnPlayer.
func (s *State) PlayerID() ecs.EntityID { return s.player }

// MustPlayer is Player for code that runs only while the player exists.
func (s *State) MustPlayer() (ecs.EntityID, *Ship) {
	id, v, ok := s.Player()
	if !ok {
		panic(ErrNoPlayer)
	}
	return id, v
}

// SpawnBullet launches a bullet from gun g of shooter. The bullet inherits
// the shooter's team and velocity.
func (s *State) SpawnBullet(shooter ecs.EntityID, g component.Gun) (ecs.EntityID, error) {
	src, ok := s.Storage().Get(shooter)
	if !ok {
		return ecs.Nil, &ecs.AccessError{ID: shooter}
	}
	t := src.Transform
	muzzle := t.Position.Add(g.Offset.Rotate(t.Rotation))
	if _, ok := s.Grid.Square(muzzle); !ok {
		return ecs.Nil, fmt.Errorf("bullet from %s: %w", shooter, spatial.ErrOutOfBounds)
	}
	bullet := Ship{
		Team:      src.Team,
		Kind:      component.KindBullet,
		Transform: component.Transform{Position: muzzle, Rotation: t.Rotation},
		Physics: component.Physics{
			Mass:     1,
			Velocity: src.Physics.Velocity.Add(t.Heading().Scale(g.BulletSpeed)),
		},
		HitPoints: component.HitPoints{Current: 1, Max: 1},
		Collider:  component.Collider{Radius: 0.25},
		Node:      spatial.NewNode(),
		Sprite:    component.Sprite{Name: "bullet", Layer: 2, Scale: 1},
		Brain:     ai.NewBrain(ai.NoRoutine),
	}
	id := s.Observe().Spawn(bullet)
	s.Bullets.Add(id, Bullet{
		Shooter:  shooter,
		Damage:   g.Damage,
		Life:     g.Lifetime,
		Speed:    g.BulletSpeed,
		Homing:   g.Homing,
		TurnRate: g.TurnRate,
		Range:    g.Range,
	})
	return id, nil
}

// Attach links two live ships and snaps the child into place.
func (s *State) Attach(child, parent ecs.EntityID, offset geom.Vec2, rotation float64) error {
	l := Link{Child: child, Parent: parent, Offset: offset, Rotation: rotation}
	if err := s.Attachments.Attach(s.Storage(), l); err != nil {
		return err
	}
	s.Follow(l)
	return nil
}

// Follow moves a linked child onto its parent's transform. A child with a
// thinking brain keeps its own rotation so it can aim.
func (s *State) Follow(l Link) bool {
	p, ok := s.Storage().Get(l.Parent)
	if !ok {
		return false
	}
	pt := p.Transform
	vel := p.Physics.Velocity
	return s.Observe().Mutate(l.Child, func(c *Ship) {
		c.Transform.Position = pt.Position.Add(l.Offset.Rotate(pt.Rotation))
		if !c.Brain.Thinking() {
			c.Transform.Rotation = geom.NormalizeAngle(pt.Rotation + l.Rotation)
		}
		c.Physics.Velocity = vel
	})
}

// Bounds is the playable rectangle, inset slightly from the grid extent.
func (s *State) Bounds() (geom.Vec2, geom.Vec2) {
	e := s.Grid.Extent()
	inset := math.Min(1e-6*e, 1e-3)
	return geom.V(-e, -e), geom.V(e-inset, e-inset)
}

// Hostile reports whether ships of team a may damage ships of team b.
// Neutral ships are everyone's enemy.
func Hostile(a, b component.Team) bool {
	return a != b
}

// Stats counts live ships by kind.
func (s *State) Stats() map[component.Kind]int {
	out := make(map[component.Kind]int)
	s.Storage().Each(func(_ ecs.EntityID, v *Ship) {
		out[v.Kind]++
	})
	return out
}
