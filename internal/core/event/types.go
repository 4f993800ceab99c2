package event

import "github.com/hordesim/simcore/internal/core/ecs"

// Cause explains why an entity left the simulation.
type Cause uint8

const (
	CauseKilled    Cause = iota // damage or contact
	CauseExpired                // lifetime or out of bounds
	CauseCollected              // pickup consumed by a player
	CauseCulled                 // entity cap back-pressure
)

func (c Cause) String() string {
	switch c {
	case CauseKilled:
		return "killed"
	case CauseExpired:
		return "expired"
	case CauseCollected:
		return "collected"
	case CauseCulled:
		return "culled"
	}
	return "unknown"
}

// EntityDied is emitted once per entity when cleanup reclaims it.
// Kind holds the world.Kind value; the event package stays below world.
type EntityDied struct {
	ID    ecs.EntityID
	Kind  uint8
	X, Y  float64
	Cause Cause
}

// CollisionOccurred is emitted for every contact a handler applied. Repeat
// touches that change nothing and faulted pairs are not reported.
type CollisionOccurred struct {
	A, B         ecs.EntityID
	AKind, BKind uint8
}

type LevelUp struct {
	Player ecs.EntityID
	Level  int
}

// StateChanged reports a scheduler state transition (values are scheduler.State).
type StateChanged struct {
	From, To uint8
}

// TierChanged reports a performance tier change (values are scheduler.Tier).
type TierChanged struct {
	From, To uint8
}
