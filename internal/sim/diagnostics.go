package sim

import "github.com/hordesim/simcore/internal/world"

// Diagnostics is the debug counter snapshot behind the overlay feed.
// State and Tier are filled in by the scheduler side. It holds no maps or
// slices, so building and copying one does not allocate.
type Diagnostics struct {
	Tick          uint64
	State         string
	Tier          string
	Live          int
	Cap           int
	Counts        [world.KindCount]int             // live entities, indexed by kind
	Pools         [world.KindCount]world.PoolStats // zero for kinds that are not pooled
	Grid          world.GridStats
	Contacts      uint64
	HandlerFaults uint64
	Culled        uint64
	PendingEvents int
	EventFailures uint64
}

// Diagnostics builds a snapshot of the current counters.
func (c *Context) Diagnostics() Diagnostics {
	counts := c.Registry.Counts()
	d := Diagnostics{
		Tick:          c.tick,
		Live:          counts.Total,
		Cap:           c.Registry.Cap(),
		Counts:        counts.ByKind,
		Grid:          c.Grid.Stats(),
		Contacts:      c.dispatcher.Contacts(),
		HandlerFaults: c.dispatcher.Faults(),
		Culled:        c.Registry.Culled(),
		PendingEvents: c.Bus.Pending(),
		EventFailures: c.Bus.Failures(),
	}
	for k := world.KindPlayer; k < world.KindCount; k++ {
		if k.Poolable() {
			d.Pools[k] = c.Pools.Stats(k)
		}
	}
	return d
}
