package system

import (
	"time"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/core/event"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/world"
	"go.uber.org/zap"
)

// HitPointSystem removes dead ships. The player is never removed: it is
// restored at the spawn point instead. Phase 6 (HitPoints).
type HitPointSystem struct {
	ws     *world.State
	bus    *event.Bus
	spawn  geom.Vec2
	deaths int
	log    *zap.Logger
}

func NewHitPointSystem(ws *world.State, bus *event.Bus, spawn geom.Vec2, log *zap.Logger) *HitPointSystem {
	return &HitPointSystem{ws: ws, bus: bus, spawn: spawn, log: log}
}

func (s *HitPointSystem) Phase() coresys.Phase { return coresys.PhaseHitPoints }

// Deaths counts player respawns.
func (s *HitPointSystem) Deaths() int { return s.deaths }

func (s *HitPointSystem) Update(_ time.Duration) {
	player := s.ws.PlayerID()
	if p, ok := s.ws.Storage().Get(player); ok && p.HitPoints.Dead() {
		s.respawn(player)
	}

	removed := s.ws.Observe().Retain(func(id ecs.EntityID, v *world.Ship) bool {
		if id == player || !v.HitPoints.Dead() {
			return true
		}
		event.Emit(s.bus, event.ShipDestroyed{ID: id, Kind: v.Kind.String(), Team: uint8(v.Team)})
		return false
	})
	if removed > 0 {
		s.log.Debug("ships destroyed", zap.Int("count", removed))
	}
}

func (s *HitPointSystem) respawn(player ecs.EntityID) {
	s.ws.Observe().Mutate(player, func(v *world.Ship) {
		v.HitPoints.Restore()
		v.Transform.Position = s.spawn
		v.Transform.Rotation = 0
		v.Physics.Velocity = geom.Vec2{}
		v.Physics.Force = geom.Vec2{}
		for i := range v.Engines {
			v.Engines[i].Level = 0
		}
	})
	s.deaths++
	s.log.Info("player down", zap.Int("deaths", s.deaths))
	event.Emit(s.bus, event.PlayerDown{ID: player, Deaths: s.deaths})
}
