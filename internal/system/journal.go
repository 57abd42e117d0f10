package system

import (
	"context"
	"time"

	"github.com/l1jgo/shipcore/internal/core/event"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/persist"
	"go.uber.org/zap"
)

// JournalWriter stores journal batches. *persist.JournalRepo implements it.
type JournalWriter interface {
	WriteBatch(ctx context.Context, run int64, entries []persist.JournalEntry) error
}

// JournalSystem records destructions, player deaths and routine faults and
// writes them out every interval ticks. Phase 8 (Output).
type JournalSystem struct {
	repo     JournalWriter
	run      int64
	pending  []persist.JournalEntry
	tick     uint64
	interval int
	log      *zap.Logger
}

// NewJournalSystem subscribes to bus. Events reach the journal one tick
// after they are emitted.
func NewJournalSystem(bus *event.Bus, repo JournalWriter, run int64, intervalTicks int, log *zap.Logger) *JournalSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &JournalSystem{repo: repo, run: run, interval: intervalTicks, log: log}
	event.Subscribe(bus, func(e event.ShipDestroyed) {
		s.record(persist.JournalDestroyed, uint64(e.ID), e.Kind)
	})
	event.Subscribe(bus, func(e event.PlayerDown) {
		s.record(persist.JournalPlayerDown, uint64(e.ID), "")
	})
	event.Subscribe(bus, func(e event.RoutineFaulted) {
		s.record(persist.JournalFault, uint64(e.ID), e.Routine+": "+e.Err.Error())
	})
	return s
}

func (s *JournalSystem) record(kind string, ship uint64, detail string) {
	s.pending = append(s.pending, persist.JournalEntry{Tick: s.tick, Kind: kind, Ship: ship, Detail: detail})
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *JournalSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%uint64(s.interval) != 0 {
		return
	}
	s.Flush()
}

// Pending is the number of entries not yet written.
func (s *JournalSystem) Pending() int { return len(s.pending) }

// Flush writes everything recorded so far. Called for graceful shutdown
// as well as on the interval. A failed batch is kept for the next flush.
func (s *JournalSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.WriteBatch(ctx, s.run, s.pending); err != nil {
		s.log.Error("journal write failed", zap.Int("entries", len(s.pending)), zap.Error(err))
		return
	}
	s.pending = s.pending[:0]
}
