package component

import (
	"fmt"

	"github.com/l1jgo/shipcore/internal/geom"
)

// Team separates friend from foe. Ships never damage their own team.
type Team uint8

const (
	TeamNeutral Team = iota
	TeamPlayer
	TeamHostile
)

// Kind is the archetype a ship was built from. The set is closed; every kind
// shares the one ship layout.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindFighter
	KindTurret
	KindDrone
	KindAsteroid
	KindBullet
)

var kindNames = [...]string{"player", "fighter", "turret", "drone", "asteroid", "bullet"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps an archetype name to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ship kind %q", name)
}

// Transform is position plus rotation in radians.
// Rotation 0 faces +Y; positive rotation is counter-clockwise.
type Transform struct {
	Position geom.Vec2
	Rotation float64
}

func (t Transform) Heading() geom.Vec2 { return geom.Heading(t.Rotation) }

// Physics is integrated by PhysicsSystem with a plain Euler step.
type Physics struct {
	Mass     float64
	Drag     float64 // fraction of velocity lost per second
	Force    geom.Vec2
	Velocity geom.Vec2
}

type HitPoints struct {
	Current int32
	Max     int32
}

func (h *HitPoints) Damage(n int32) {
	h.Current -= n
	if h.Current < 0 {
		h.Current = 0
	}
}

func (h HitPoints) Dead() bool { return h.Current <= 0 }

func (h *HitPoints) Restore() { h.Current = h.Max }

// Collider is a circle around the ship position.
type Collider struct {
	Radius float64
}

// Sprite is render metadata; the simulation never reads it.
type Sprite struct {
	Name  string
	Layer int
	Scale float64
}
