package system

import (
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// CleanupSystem compacts the entity registry at tick end, returning reclaimed
// shots to their pools. Phase 4 (Cleanup).
type CleanupSystem struct {
	ctx *sim.Context
}

func NewCleanupSystem(ctx *sim.Context) *CleanupSystem {
	return &CleanupSystem{ctx: ctx}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.ctx.Cleanup()
}
