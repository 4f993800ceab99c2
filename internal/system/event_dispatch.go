package system

import (
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// EventDispatchSystem swaps the event buffers and delivers everything emitted
// during the previous tick. Phase 0 (PreUpdate).
type EventDispatchSystem struct {
	ctx *sim.Context
}

func NewEventDispatchSystem(ctx *sim.Context) *EventDispatchSystem {
	return &EventDispatchSystem{ctx: ctx}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.ctx.BeginTick()
}
