package scheduler

// State is the scheduler's run state, derived from the host flags with
// priority context-lost > suspended > paused > running.
type State uint8

const (
	StateRunning State = iota
	StatePaused
	StateSuspended // host surface hidden or unfocused
	StateContextLost
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateSuspended:
		return "suspended"
	case StateContextLost:
		return "context-lost"
	}
	return "unknown"
}

// Tier is the coarse performance level reported by the perf monitor.
type Tier uint8

const (
	TierNormal Tier = iota
	TierLow
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierLow:
		return "low"
	case TierCritical:
		return "critical"
	}
	return "unknown"
}

// HostEventKind enumerates the asynchronous host signals.
type HostEventKind uint8

const (
	EventPause HostEventKind = iota + 1
	EventResume
	EventTogglePause
	EventOverlayOpen
	EventOverlayClose
	EventVisible
	EventHidden
	EventToggleVisible
	EventSurfaceLost
	EventSurfaceRestored
	EventTier
)

// HostEvent is queued by Post and applied between ticks.
type HostEvent struct {
	Kind HostEventKind
	Tier Tier // EventTier only
}
