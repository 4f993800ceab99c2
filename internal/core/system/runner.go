package system

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PhaseCosts is the wall time spent in each phase during one tick.
type PhaseCosts [PhaseCount]time.Duration

// Total sums all phases.
func (c PhaseCosts) Total() time.Duration {
	var t time.Duration
	for _, d := range c {
		t += d
	}
	return t
}

func (c PhaseCosts) String() string {
	var sb strings.Builder
	for p, d := range c {
		if p > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%s", Phase(p), d)
	}
	return sb.String()
}

// Runner executes systems in phase order each tick.
// Systems sharing a phase run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	costs   PhaseCosts
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once and records how long each phase took.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	r.ticks++
	r.costs = PhaseCosts{}
	for _, s := range r.systems {
		start := time.Now()
		s.Update(dt)
		if p := s.Phase(); p >= 0 && p < PhaseCount {
			r.costs[p] += time.Since(start)
		}
	}
}

// Ticks returns the number of ticks executed.
func (r *Runner) Ticks() uint64 { return r.ticks }

// LastCosts returns the per-phase cost of the most recent tick.
func (r *Runner) LastCosts() PhaseCosts { return r.costs }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
