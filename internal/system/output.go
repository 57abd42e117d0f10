package system

import (
	"time"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/net"
	"github.com/l1jgo/shipcore/internal/world"
	"go.uber.org/zap"
)

// Broadcaster is the spectator side of the network server.
type Broadcaster interface {
	Poll()
	Broadcast(snap *net.Snapshot) error
}

// OutputSystem publishes a snapshot every interval ticks. It only reads
// the world. Phase 8 (Output).
type OutputSystem struct {
	ws       *world.State
	out      Broadcaster
	interval int
	tick     uint64
	log      *zap.Logger
}

func NewOutputSystem(ws *world.State, out Broadcaster, interval int, log *zap.Logger) *OutputSystem {
	if interval < 1 {
		interval = 1
	}
	return &OutputSystem{ws: ws, out: out, interval: interval, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.tick++
	s.out.Poll()
	if s.tick%uint64(s.interval) != 0 {
		return
	}
	if err := s.out.Broadcast(Snapshot(s.ws, s.tick)); err != nil {
		s.log.Error("snapshot broadcast failed", zap.Error(err))
	}
}

// Snapshot captures every live ship in slot order.
func Snapshot(ws *world.State, tick uint64) *net.Snapshot {
	store := ws.Storage()
	snap := &net.Snapshot{
		Tick:   tick,
		Player: uint64(ws.PlayerID()),
		Ships:  make([]net.ShipView, 0, store.Len()),
	}
	store.Each(func(id ecs.EntityID, v *world.Ship) {
		snap.Ships = append(snap.Ships, net.ShipView{
			ID:       uint64(id),
			Kind:     v.Kind.String(),
			Team:     uint8(v.Team),
			X:        v.Transform.Position.X,
			Y:        v.Transform.Position.Y,
			Rotation: v.Transform.Rotation,
			HP:       v.HitPoints.Current,
			MaxHP:    v.HitPoints.Max,
			Radius:   v.Collider.Radius,
			Sprite:   v.Sprite.Name,
			Layer:    v.Sprite.Layer,
		})
	})
	return snap
}
