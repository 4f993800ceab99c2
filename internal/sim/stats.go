package sim

import (
	"time"

	"github.com/google/uuid"
	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/world"
)

// RunSummary is the end-of-run tally handed to the run store.
type RunSummary struct {
	ID            uuid.UUID
	StartedAt     time.Time
	EndedAt       time.Time
	Ticks         uint64
	EnemiesKilled int
	ShotsSpent    int
	OrbsCollected int
	PlayerDeaths  int
	PeakLive      int
	MaxLevel      int
	Culled        uint64
	HandlerFaults uint64
}

// Duration is the wall time the run lasted.
func (s RunSummary) Duration() time.Duration { return s.EndedAt.Sub(s.StartedAt) }

// RunRecorder tallies a run from entity-died and level-up events.
type RunRecorder struct {
	ctx *Context
	sum RunSummary
}

// NewRunRecorder subscribes to the context's bus and starts the clock.
func NewRunRecorder(c *Context) *RunRecorder {
	r := &RunRecorder{
		ctx: c,
		sum: RunSummary{ID: uuid.New(), StartedAt: time.Now(), MaxLevel: 1},
	}
	event.Subscribe(c.Bus, r.onDied)
	event.Subscribe(c.Bus, r.onLevelUp)
	return r
}

func (r *RunRecorder) onDied(ev event.EntityDied) {
	switch world.Kind(ev.Kind) {
	case world.KindEnemy:
		if ev.Cause == event.CauseKilled {
			r.sum.EnemiesKilled++
		}
	case world.KindProjectile:
		r.sum.ShotsSpent++
	case world.KindXPOrb:
		if ev.Cause == event.CauseCollected {
			r.sum.OrbsCollected++
		}
	case world.KindPlayer:
		r.sum.PlayerDeaths++
	}
}

func (r *RunRecorder) onLevelUp(ev event.LevelUp) {
	r.sum.MaxLevel = max(r.sum.MaxLevel, ev.Level)
}

// Sample records the current live count; called once per tick.
func (r *RunRecorder) Sample() {
	r.sum.PeakLive = max(r.sum.PeakLive, r.ctx.Registry.Live())
}

// Summary returns the tally so far, stamped with the current time.
func (r *RunRecorder) Summary() RunSummary {
	s := r.sum
	s.EndedAt = time.Now()
	s.Ticks = r.ctx.Tick()
	s.Culled = r.ctx.Registry.Culled()
	s.HandlerFaults = r.ctx.dispatcher.Faults()
	return s
}
