package system

import (
	"time"

	coresys "github.com/l1jgo/shipcore/internal/core/system"
	"github.com/l1jgo/shipcore/internal/world"
)

// AttachmentSystem moves every attached ship onto its parent, parents
// first so chains settle in one pass. Phase 4 (Attachments).
type AttachmentSystem struct {
	ws *world.State
}

func NewAttachmentSystem(ws *world.State) *AttachmentSystem {
	return &AttachmentSystem{ws: ws}
}

func (s *AttachmentSystem) Phase() coresys.Phase { return coresys.PhaseAttachments }

func (s *AttachmentSystem) Update(_ time.Duration) {
	for _, l := range s.ws.Attachments.Ordered() {
		s.ws.Follow(l)
	}
}
