package system

import (
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// BroadPhaseSystem rebuilds the spatial hash from post-move positions.
// Phase 2 (Broad).
type BroadPhaseSystem struct {
	ctx *sim.Context
}

func NewBroadPhaseSystem(ctx *sim.Context) *BroadPhaseSystem {
	return &BroadPhaseSystem{ctx: ctx}
}

func (s *BroadPhaseSystem) Phase() coresys.Phase { return coresys.PhaseBroad }

func (s *BroadPhaseSystem) Update(_ time.Duration) {
	s.ctx.RebuildGrid()
}

// CollisionSystem tests every candidate pair and dispatches contacts.
// Phase 3 (Collision).
type CollisionSystem struct {
	ctx *sim.Context
}

func NewCollisionSystem(ctx *sim.Context) *CollisionSystem {
	return &CollisionSystem{ctx: ctx}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

func (s *CollisionSystem) Update(_ time.Duration) {
	s.ctx.ResolveCollisions()
}
