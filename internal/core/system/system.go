package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: deliver last tick's events
	PhaseUpdate                 // 1: per-entity behavior (movement, timers, AI)
	PhaseBroad                  // 2: rebuild spatial grid from post-move positions
	PhaseCollision              // 3: narrow phase + type-pair resolution
	PhaseCleanup                // 4: compact registry, release pooled entities
	PhaseOutput                 // 5: publish counters and snapshots

	PhaseCount
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseBroad:
		return "broad"
	case PhaseCollision:
		return "collision"
	case PhaseCleanup:
		return "cleanup"
	case PhaseOutput:
		return "output"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
