package system

import (
	"math"
	"time"

	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/geom"
	"github.com/l1jgo/shipcore/internal/net"
	"github.com/l1jgo/shipcore/internal/world"
)

// Controller supplies the pilot's intent. ok is false when nobody is flying
// the player ship.
type Controller interface {
	Intent() (in net.Intent, ok bool)
}

// InputSystem applies the controller's intent to the player ship.
// Phase 7 (Input).
type InputSystem struct {
	ws   *world.State
	ctrl Controller
}

func NewInputSystem(ws *world.State, ctrl Controller) *InputSystem {
	return &InputSystem{ws: ws, ctrl: ctrl}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	in, ok := s.ctrl.Intent()
	if !ok {
		return
	}
	in = in.Clamped()
	secs := dt.Seconds()
	s.ws.Observe().Mutate(s.ws.PlayerID(), func(v *world.Ship) {
		if in.Turn != 0 {
			v.Transform.Rotation = geom.NormalizeAngle(v.Transform.Rotation + in.Turn*v.TurnRate*secs)
		}
		for i := range v.Engines {
			e := &v.Engines[i]
			e.Level = int(math.Round(in.Throttle * float64(e.MaxLevel)))
		}
		if in.Fire {
			for i := range v.Guns {
				v.Guns[i].Fire()
			}
		}
	})
}
