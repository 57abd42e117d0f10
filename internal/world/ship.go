package world

import (
	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/spatial"
)

// Ship is the one object layout stored in the world. Every archetype,
// bullets included, is a Ship with a different Kind and stats.
// Relationships to other ships are EntityIDs kept in side tables.
type Ship struct {
	Team      component.Team
	Kind      component.Kind
	Transform component.Transform
	Guns      []component.Gun
	Engines   []component.Engine
	Physics   component.Physics
	TurnRate  float64
	HitPoints component.HitPoints
	Collider  component.Collider
	Node      spatial.Node
	Sprite    component.Sprite
	Brain     ai.Brain
}

// Component accessors for systems written against ecs.Accessor.
var (
	TransformOf ecs.Accessor[Ship, component.Transform] = func(s *Ship) *component.Transform { return &s.Transform }
	PositionOf  ecs.Accessor[Ship, geom.Vec2]           = func(s *Ship) *geom.Vec2 { return &s.Transform.Position }
	PhysicsOf   ecs.Accessor[Ship, component.Physics]   = func(s *Ship) *component.Physics { return &s.Physics }
	EnginesOf   ecs.Accessor[Ship, []component.Engine]  = func(s *Ship) *[]component.Engine { return &s.Engines }
	GunsOf      ecs.Accessor[Ship, []component.Gun]     = func(s *Ship) *[]component.Gun { return &s.Guns }
	HitPointsOf ecs.Accessor[Ship, component.HitPoints] = func(s *Ship) *component.HitPoints { return &s.HitPoints }
	ColliderOf  ecs.Accessor[Ship, component.Collider]  = func(s *Ship) *component.Collider { return &s.Collider }
	NodeOf      ecs.Accessor[Ship, spatial.Node]        = func(s *Ship) *spatial.Node { return &s.Node }
	BrainOf     ecs.Accessor[Ship, ai.Brain]            = func(s *Ship) *ai.Brain { return &s.Brain }
	TurnRateOf  ecs.Accessor[Ship, float64]             = func(s *Ship) *float64 { return &s.TurnRate }
)

// AIAccess wires the AI machine to Ship.
var AIAccess = ai.Access[Ship]{
	Transform: TransformOf,
	Guns:      GunsOf,
	Engines:   EnginesOf,
	Brain:     BrainOf,
	TurnRate:  TurnRateOf,
}

// Blueprint is everything needed to build a ship of one archetype.
type Blueprint struct {
	Name     string
	Kind     component.Kind
	Guns     []component.Gun
	Engines  []component.Engine
	Mass     float64
	Drag     float64
	TurnRate float64
	MaxHP    int32
	Radius   float64
	Sprite   component.Sprite
	Routine  ai.RoutineID
}

// Build makes a fresh ship from the blueprint. Gun and engine slices are
// copied so ships never share slots.
func (b Blueprint) Build(team component.Team, pos geom.Vec2, rotation float64) Ship {
	guns := make([]component.Gun, len(b.Guns))
	copy(guns, b.Guns)
	engines := make([]component.Engine, len(b.Engines))
	copy(engines, b.Engines)
	mass := b.Mass
	if mass <= 0 {
		mass = 1
	}
	return Ship{
		Team:      team,
		Kind:      b.Kind,
		Transform: component.Transform{Position: pos, Rotation: rotation},
		Guns:      guns,
		Engines:   engines,
		Physics:   component.Physics{Mass: mass, Drag: b.Drag},
		TurnRate:  b.TurnRate,
		HitPoints: component.HitPoints{Current: b.MaxHP, Max: b.MaxHP},
		Collider:  component.Collider{Radius: b.Radius},
		Node:      spatial.NewNode(),
		Sprite:    b.Sprite,
		Brain:     ai.NewBrain(b.Routine),
	}
}
