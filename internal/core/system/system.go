package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents      Phase = iota // 0: deliver last tick's events
	PhaseEngines                  // 1: engine thrust into force
	PhasePhysics                  // 2: integrate force and velocity
	PhaseWeapons                  // 3: gun timers, bullets, hits
	PhaseAttachments              // 4: children follow parents
	PhaseAI                       // 5: run routines
	PhaseHitPoints                // 6: remove or respawn the dead
	PhaseInput                    // 7: player intent
	PhaseOutput                   // 8: snapshots to spectators
	PhaseCleanup                  // 9: destroy queued entities
)

var phaseNames = [...]string{
	"events", "engines", "physics", "weapons", "attachments",
	"ai", "hitpoints", "input", "output", "cleanup",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
