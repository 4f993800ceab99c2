package diag

import (
	"github.com/hordesim/simcore/internal/sim"
	"github.com/hordesim/simcore/internal/world"
)

// Snapshot is the wire form of sim.Diagnostics, with per-kind counters keyed
// by kind name. It is built per response, not per tick.
type Snapshot struct {
	Tick          uint64                     `msgpack:"tick"`
	State         string                     `msgpack:"state"`
	Tier          string                     `msgpack:"tier"`
	Live          int                        `msgpack:"live"`
	Cap           int                        `msgpack:"cap"`
	Counts        map[string]int             `msgpack:"counts"`
	Pools         map[string]world.PoolStats `msgpack:"pools"`
	Grid          world.GridStats            `msgpack:"grid"`
	Contacts      uint64                     `msgpack:"contacts"`
	HandlerFaults uint64                     `msgpack:"handler_faults"`
	Culled        uint64                     `msgpack:"culled"`
	PendingEvents int                        `msgpack:"pending_events"`
	EventFailures uint64                     `msgpack:"event_failures"`
}

func newSnapshot(d sim.Diagnostics) Snapshot {
	s := Snapshot{
		Tick:          d.Tick,
		State:         d.State,
		Tier:          d.Tier,
		Live:          d.Live,
		Cap:           d.Cap,
		Counts:        make(map[string]int, world.KindCount-1),
		Pools:         make(map[string]world.PoolStats, 2),
		Grid:          d.Grid,
		Contacts:      d.Contacts,
		HandlerFaults: d.HandlerFaults,
		Culled:        d.Culled,
		PendingEvents: d.PendingEvents,
		EventFailures: d.EventFailures,
	}
	for k := world.KindPlayer; k < world.KindCount; k++ {
		s.Counts[k.String()] = d.Counts[k]
		if k.Poolable() {
			s.Pools[k.String()] = d.Pools[k]
		}
	}
	return s
}
