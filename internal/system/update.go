package system

import (
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// UpdateSystem runs every live entity's behavior with the clamped delta.
// Phase 1 (Update).
type UpdateSystem struct {
	ctx *sim.Context
}

func NewUpdateSystem(ctx *sim.Context) *UpdateSystem {
	return &UpdateSystem{ctx: ctx}
}

func (s *UpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UpdateSystem) Update(dt time.Duration) {
	s.ctx.UpdateEntities(dt.Seconds())
}
