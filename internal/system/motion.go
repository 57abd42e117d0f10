package system

import (
	"time"

	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/geom"
)

// EngineSystem turns engine levels into force along the ship's heading.
// Phase 1 (Engines).
type EngineSystem[T any] struct {
	obs       *ecs.Observation[T]
	transform ecs.Accessor[T, component.Transform]
	engines   ecs.Accessor[T, []component.Engine]
	physics   ecs.Accessor[T, component.Physics]
}

func NewEngineSystem[T any](
	obs *ecs.Observation[T],
	transform ecs.Accessor[T, component.Transform],
	engines ecs.Accessor[T, []component.Engine],
	physics ecs.Accessor[T, component.Physics],
) *EngineSystem[T] {
	return &EngineSystem[T]{obs: obs, transform: transform, engines: engines, physics: physics}
}

func (s *EngineSystem[T]) Phase() coresys.Phase { return coresys.PhaseEngines }

func (s *EngineSystem[T]) Update(_ time.Duration) {
	ecs.Each2(s.obs, s.engines, s.physics, func(id ecs.EntityID, engines *[]component.Engine, p *component.Physics) {
		var thrust float64
		for _, e := range *engines {
			thrust += e.Force()
		}
		if thrust == 0 {
			p.Force = geom.Vec2{}
			return
		}
		v, _ := s.obs.Get(id)
		p.Force = s.transform(v).Heading().Scale(thrust)
	})
}

// PhysicsSystem integrates force into velocity and velocity into position
// with an explicit Euler step. Positions are clamped to the playable
// rectangle; a ship pinned against an edge loses the velocity pushing it out.
// Phase 2 (Physics).
type PhysicsSystem[T any] struct {
	obs       *ecs.Observation[T]
	transform ecs.Accessor[T, component.Transform]
	physics   ecs.Accessor[T, component.Physics]
	min, max  geom.Vec2
}

func NewPhysicsSystem[T any](
	obs *ecs.Observation[T],
	transform ecs.Accessor[T, component.Transform],
	physics ecs.Accessor[T, component.Physics],
	min, max geom.Vec2,
) *PhysicsSystem[T] {
	return &PhysicsSystem[T]{obs: obs, transform: transform, physics: physics, min: min, max: max}
}

func (s *PhysicsSystem[T]) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem[T]) Update(dt time.Duration) {
	secs := dt.Seconds()
	ecs.Each2(s.obs, s.transform, s.physics, func(_ ecs.EntityID, t *component.Transform, p *component.Physics) {
		Integrate(t, p, secs, s.min, s.max)
	})
}

// Integrate advances one body by secs.
func Integrate(t *component.Transform, p *component.Physics, secs float64, lo, hi geom.Vec2) {
	mass := p.Mass
	if mass <= 0 {
		mass = 1
	}
	p.Velocity = p.Velocity.Add(p.Force.Scale(secs / mass))
	if p.Drag > 0 {
		p.Velocity = p.Velocity.Scale(max(0, 1-p.Drag*secs))
	}
	pos := t.Position.Add(p.Velocity.Scale(secs))
	clamped := pos.Clamp(lo, hi)
	if clamped.X != pos.X {
		p.Velocity.X = 0
	}
	if clamped.Y != pos.Y {
		p.Velocity.Y = 0
	}
	t.Position = clamped
}
