package system

import (
	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// RegisterPipeline registers the tick pipeline: event dispatch, entity
// update, broad phase, collision, cleanup, then output.
func RegisterPipeline(r *coresys.Runner, ctx *sim.Context, out *OutputSystem) {
	r.Register(NewEventDispatchSystem(ctx))
	r.Register(NewUpdateSystem(ctx))
	r.Register(NewBroadPhaseSystem(ctx))
	r.Register(NewCollisionSystem(ctx))
	r.Register(NewCleanupSystem(ctx))
	if out != nil {
		r.Register(out)
	}
}
