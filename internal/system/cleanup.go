package system

import (
	"time"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	coresys "github.com/l1jgo/shipcore/internal/core/system"
)

// CleanupSystem flushes the deferred destruction queue at tick end.
// Phase 9 (Cleanup).
type CleanupSystem[T any] struct {
	world *ecs.World[T]
}

func NewCleanupSystem[T any](world *ecs.World[T]) *CleanupSystem[T] {
	return &CleanupSystem[T]{world: world}
}

func (s *CleanupSystem[T]) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem[T]) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
