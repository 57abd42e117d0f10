package system

import (
	"time"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/core/event"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/world"
	"go.uber.org/zap"
)

// AISystem runs one routine pass for every thinking ship, targeting the
// player. A routine error disables only the ship that raised it.
// Phase 5 (AI).
type AISystem struct {
	ws      *world.State
	machine *ai.Machine[world.Ship]
	bus     *event.Bus
	log     *zap.Logger
	faults  int
}

func NewAISystem(ws *world.State, machine *ai.Machine[world.Ship], bus *event.Bus, log *zap.Logger) *AISystem {
	return &AISystem{ws: ws, machine: machine, bus: bus, log: log}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseAI }

// Faults is the number of brains disabled so far.
func (s *AISystem) Faults() int { return s.faults }

func (s *AISystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	store := s.ws.Storage()
	obs := s.ws.Observe()
	target := s.ws.PlayerID()
	lib := s.machine.Library()

	for _, id := range store.IDs() {
		v, ok := store.Get(id)
		if !ok || !v.Brain.Thinking() {
			continue
		}
		name := "?"
		if r, ok := lib.Routine(v.Brain.Routine); ok {
			name = r.Name
		}
		err := s.machine.Think(obs, id, target, secs)
		if err == nil {
			continue
		}
		obs.Mutate(id, func(v *world.Ship) { v.Brain.Disable() })
		s.faults++
		s.log.Warn("routine faulted, brain disabled",
			zap.Stringer("ship", id),
			zap.String("routine", name),
			zap.Error(err),
		)
		event.Emit(s.bus, event.RoutineFaulted{ID: id, Routine: name, Err: err})
	}
}
