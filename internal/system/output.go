package system

import (
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/sim"
)

// Publisher receives one diagnostics snapshot per tick.
type Publisher interface {
	Publish(d sim.Diagnostics)
}

// StatusFunc reports the scheduler state and tier names for the snapshot.
type StatusFunc func() (state, tier string)

// OutputSystem samples run statistics and publishes diagnostics.
// Phase 5 (Output).
type OutputSystem struct {
	ctx      *sim.Context
	recorder *sim.RunRecorder
	pub      Publisher
	status   StatusFunc
}

// NewOutputSystem creates the output system. recorder, pub and status may be nil.
func NewOutputSystem(ctx *sim.Context, recorder *sim.RunRecorder, pub Publisher, status StatusFunc) *OutputSystem {
	return &OutputSystem{ctx: ctx, recorder: recorder, pub: pub, status: status}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	if s.recorder != nil {
		s.recorder.Sample()
	}
	if s.pub == nil {
		return
	}
	d := s.ctx.Diagnostics()
	if s.status != nil {
		d.State, d.Tier = s.status()
	}
	s.pub.Publish(d)
}
