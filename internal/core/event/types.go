package event

import "github.com/l1jgo/shipcore/internal/core/ecs"

// ShipDestroyed is emitted when a non-player ship is removed for lack of hit points.
type ShipDestroyed struct {
	ID   ecs.EntityID
	Kind string
	Team uint8
}

// PlayerDown is emitted when the player ship dies and is respawned.
type PlayerDown struct {
	ID     ecs.EntityID
	Deaths int
}

// RoutineFaulted is emitted when a ship's AI is disabled after a routine error.
type RoutineFaulted struct {
	ID      ecs.EntityID
	Routine string
	Err     error
}

// ShotFired is emitted for every bullet spawned.
type ShotFired struct {
	Shooter ecs.EntityID
	Bullet  ecs.EntityID
	Homing  bool
}
