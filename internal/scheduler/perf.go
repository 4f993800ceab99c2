package scheduler

import (
	"time"

	"github.com/hordesim/simcore/internal/config"
)

// PerfMonitor turns tick cost into a performance tier. It keeps an
// exponentially weighted average of cost/budget and only changes tier after
// the same verdict holds for `hysteresis` consecutive samples.
type PerfMonitor struct {
	budget     time.Duration
	alpha      float64
	low        float64
	critical   float64
	hysteresis int

	avg     float64
	primed  bool
	tier    Tier
	pending Tier
	streak  int
}

func NewPerfMonitor(cfg config.PerfConfig, budget time.Duration) *PerfMonitor {
	window := max(cfg.SampleWindow, 1)
	return &PerfMonitor{
		budget:     budget,
		alpha:      2 / float64(window+1),
		low:        cfg.LowRatio,
		critical:   cfg.CriticalRatio,
		hysteresis: max(cfg.Hysteresis, 1),
	}
}

// Observe records one tick cost and returns the tier plus whether it changed.
func (m *PerfMonitor) Observe(cost time.Duration) (Tier, bool) {
	if m.budget <= 0 {
		return m.tier, false
	}
	ratio := float64(cost) / float64(m.budget)
	if !m.primed {
		m.avg, m.primed = ratio, true
	} else {
		m.avg += m.alpha * (ratio - m.avg)
	}

	want := TierNormal
	switch {
	case m.avg >= m.critical:
		want = TierCritical
	case m.avg >= m.low:
		want = TierLow
	}
	if want == m.tier {
		m.streak = 0
		return m.tier, false
	}
	if want != m.pending {
		m.pending, m.streak = want, 0
	}
	m.streak++
	if m.streak < m.hysteresis {
		return m.tier, false
	}
	m.tier, m.streak = want, 0
	return m.tier, true
}

// Ratio is the smoothed cost/budget ratio.
func (m *PerfMonitor) Ratio() float64 { return m.avg }

func (m *PerfMonitor) Tier() Tier { return m.tier }
