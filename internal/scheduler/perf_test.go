package scheduler

import (
	"testing"
	"time"

	"github.com/hordesim/simcore/internal/config"
)

func TestPerfMonitorHysteresis(t *testing.T) {
	m := NewPerfMonitor(config.PerfConfig{SampleWindow: 1, LowRatio: 0.6, CriticalRatio: 0.9, Hysteresis: 3}, 10*time.Millisecond)

	// window 1: the average follows each sample exactly
	for i := range 2 {
		if tier, changed := m.Observe(7 * time.Millisecond); changed || tier != TierNormal {
			t.Fatalf("sample %d: tier %s changed %v", i, tier, changed)
		}
	}
	if tier, changed := m.Observe(7 * time.Millisecond); !changed || tier != TierLow {
		t.Fatalf("third low sample: tier %s changed %v", tier, changed)
	}

	// one fast tick resets the streak toward normal
	m.Observe(time.Millisecond)
	m.Observe(time.Millisecond)
	m.Observe(7 * time.Millisecond)
	if m.Tier() != TierLow {
		t.Fatalf("tier = %s", m.Tier())
	}

	for range 3 {
		m.Observe(12 * time.Millisecond)
	}
	if m.Tier() != TierCritical {
		t.Errorf("tier = %s, want critical", m.Tier())
	}
	for range 3 {
		m.Observe(time.Millisecond)
	}
	if m.Tier() != TierNormal {
		t.Errorf("tier = %s, want normal", m.Tier())
	}
}

func TestPerfMonitorSmoothing(t *testing.T) {
	m := NewPerfMonitor(config.PerfConfig{SampleWindow: 3, LowRatio: 0.6, CriticalRatio: 0.9, Hysteresis: 1}, 10*time.Millisecond)
	m.Observe(2 * time.Millisecond)
	// alpha 0.5: one spike moves the average halfway, short of the threshold
	if _, changed := m.Observe(9 * time.Millisecond); changed {
		t.Errorf("spike changed tier; ratio %v", m.Ratio())
	}
	if r := m.Ratio(); r < 0.54 || r > 0.56 {
		t.Errorf("ratio = %v, want 0.55", r)
	}
}
