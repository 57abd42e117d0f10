package system

import (
	"math"
	"time"

	"github.com/l1jgo/shipcore/internal/component"
	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/core/event"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/world"
	"go.uber.org/zap"
)

// WeaponSystem runs gun recoil, launches bullets for triggered guns, steers
// homing bullets and resolves bullet hits. Phase 3 (Weapons).
type WeaponSystem struct {
	ws  *world.State
	bus *event.Bus
	log *zap.Logger
}

func NewWeaponSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *WeaponSystem {
	return &WeaponSystem{ws: ws, bus: bus, log: log}
}

func (s *WeaponSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

func (s *WeaponSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	s.fireGuns(secs)
	s.moveBullets(secs)
}

type shot struct {
	shooter ecs.EntityID
	gun     component.Gun
}

// fireGuns ticks every gun and spawns a bullet per triggered gun. Bullets are
// spawned after the pass so they do not shoot on their first tick.
func (s *WeaponSystem) fireGuns(secs float64) {
	store := s.ws.Storage()
	obs := s.ws.Observe()
	var shots []shot
	for _, id := range store.IDs() {
		v, _ := store.Get(id)
		if len(v.Guns) == 0 {
			continue
		}
		obs.Mutate(id, func(v *world.Ship) {
			for i := range v.Guns {
				g := &v.Guns[i]
				g.Tick(secs)
				if g.Triggered {
					g.Triggered = false
					shots = append(shots, shot{shooter: id, gun: *g})
				}
			}
		})
	}

	for _, sh := range shots {
		bullet, err := s.ws.SpawnBullet(sh.shooter, sh.gun)
		if err != nil {
			s.log.Debug("shot dropped", zap.Stringer("shooter", sh.shooter), zap.Error(err))
			continue
		}
		event.Emit(s.bus, event.ShotFired{Shooter: sh.shooter, Bullet: bullet, Homing: sh.gun.Homing})
	}
}

func (s *WeaponSystem) moveBullets(secs float64) {
	store := s.ws.Storage()
	reach := s.largestRadius()
	for _, id := range s.ws.Bullets.IDs(store) {
		info, _ := s.ws.Bullets.Get(id)
		info.Life -= secs
		if info.Life <= 0 {
			s.ws.World.MarkForDestruction(id)
			continue
		}
		if info.Homing {
			s.steer(id, info, secs)
		}
		if target, ok := s.hit(id, reach); ok {
			s.ws.Observe().Mutate(target, func(v *world.Ship) {
				v.HitPoints.Damage(info.Damage)
			})
			s.ws.World.MarkForDestruction(id)
		}
	}
}

// steer keeps a homing bullet's target current and turns it toward it.
func (s *WeaponSystem) steer(id ecs.EntityID, info *world.Bullet, secs float64) {
	store := s.ws.Storage()
	b, _ := store.Get(id)
	if !store.Alive(info.Target) {
		team := b.Team
		target, _, found := s.ws.Grid.FindClosest(store, b.Transform.Position, info.Range,
			func(cand ecs.EntityID, v *world.Ship) bool {
				return cand != info.Shooter && targetable(team, v)
			})
		if !found {
			s.ws.Bullets.SetTarget(id, ecs.Nil)
			return
		}
		s.ws.Bullets.SetTarget(id, target)
	}
	t, ok := store.Get(info.Target)
	if !ok {
		return
	}
	dir := t.Transform.Position.Sub(b.Transform.Position)
	if dir.LenSq() < geom.Epsilon {
		return
	}
	s.ws.Observe().Mutate(id, func(v *world.Ship) {
		angle := geom.SignedAngle(v.Transform.Heading(), dir)
		step := info.TurnRate * secs
		if math.Abs(angle) <= step {
			v.Transform.Rotation = geom.RotationOf(dir)
		} else {
			v.Transform.Rotation = geom.NormalizeAngle(v.Transform.Rotation + math.Copysign(step, angle))
		}
		v.Physics.Velocity = v.Transform.Heading().Scale(info.Speed)
	})
}

// hit finds the closest enemy ship overlapping the bullet.
func (s *WeaponSystem) hit(id ecs.EntityID, reach float64) (ecs.EntityID, bool) {
	store := s.ws.Storage()
	b, _ := store.Get(id)
	info, _ := s.ws.Bullets.Get(id)
	pos := b.Transform.Position
	r := b.Collider.Radius + reach
	best, bestDist := ecs.Nil, math.Inf(1)
	s.ws.Grid.Within(store, pos.Sub(geom.V(r, r)), pos.Add(geom.V(r, r)), func(cand ecs.EntityID, v *world.Ship) {
		if cand == info.Shooter || !targetable(b.Team, v) {
			return
		}
		d := v.Transform.Position.Dist(pos)
		if d > b.Collider.Radius+v.Collider.Radius {
			return
		}
		if d < bestDist || (d == bestDist && cand.Index() < best.Index()) {
			best, bestDist = cand, d
		}
	})
	return best, best != ecs.Nil
}

func (s *WeaponSystem) largestRadius() float64 {
	var r float64
	ecs.Read1(s.ws.Storage(), world.ColliderOf, func(_ ecs.EntityID, c *component.Collider) {
		r = max(r, c.Radius)
	})
	return r
}

// targetable reports whether a bullet of team may damage v.
func targetable(team component.Team, v *world.Ship) bool {
	return v.Kind != component.KindBullet && !v.HitPoints.Dead() && world.Hostile(team, v.Team)
}
