package scheduler

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/core/event"
	coresys "github.com/hordesim/simcore/internal/core/system"
	"go.uber.org/zap"
)

// ErrSurfaceLost is returned by Frame while the rendering surface is gone.
var ErrSurfaceLost = errors.New("rendering surface lost")

// Ticker runs one simulation tick. *coresys.Runner satisfies it.
type Ticker interface {
	Tick(dt time.Duration)
}

type phaseCoster interface {
	LastCosts() coresys.PhaseCosts
}

// Hooks connect the scheduler to the simulation it drives. Nil hooks are skipped.
type Hooks struct {
	SetCap    func(n int) // live-entity cap for the current tier
	OnSuspend func()      // entering suspension: shed transient pooled state
}

// Scheduler drives the tick loop. All methods except Post belong to the
// goroutine running Run (or the caller of Frame in tests).
type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Ticker
	bus    *event.Bus
	hooks  Hooks
	log    *zap.Logger
	perf   *PerfMonitor

	paused       bool      // explicit user pause
	overlay      bool      // level-up or menu overlay
	overlayUntil time.Time // zero: the overlay stays until CloseOverlay
	hidden       bool
	lost         bool
	state        State
	tier         Tier

	frames    uint64
	ticks     uint64
	skipped   uint64
	lastDelta float64

	events chan HostEvent
}

// New creates a scheduler in the running state at the normal tier and
// applies the normal tier's entity cap. perf may be nil.
func New(cfg config.SchedulerConfig, runner Ticker, bus *event.Bus, perf *PerfMonitor, hooks Hooks, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		runner: runner,
		bus:    bus,
		hooks:  hooks,
		log:    log,
		perf:   perf,
		events: make(chan HostEvent, 32),
	}
	if hooks.SetCap != nil {
		hooks.SetCap(s.tierConfig(TierNormal).EntityCap)
	}
	return s
}

// SanitizeDelta turns raw elapsed seconds into a usable step: zero, negative
// or non-finite input becomes the fallback step, large stalls are clamped.
func (s *Scheduler) SanitizeDelta(elapsed float64) float64 {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		return s.cfg.FallbackDelta
	}
	return min(elapsed, s.cfg.MaxDelta)
}

// Frame is the host frame callback. It runs exactly one tick when running and
// reports whether it did. While the surface is lost it returns ErrSurfaceLost.
func (s *Scheduler) Frame(elapsed float64) (bool, error) {
	s.frames++
	switch s.state {
	case StateContextLost:
		s.skipped++
		return false, ErrSurfaceLost
	case StatePaused, StateSuspended:
		s.skipped++
		return false, nil
	}

	dt := s.SanitizeDelta(elapsed)
	s.lastDelta = dt
	start := time.Now()
	s.runner.Tick(time.Duration(dt * float64(time.Second)))
	s.ticks++

	if s.perf != nil {
		if tier, changed := s.perf.Observe(time.Since(start)); changed {
			if pc, ok := s.runner.(phaseCoster); ok {
				s.log.Debug("tick cost at tier change", zap.Stringer("phases", pc.LastCosts()))
			}
			s.SetTier(tier)
		}
	}
	return true, nil
}

// Pause sets the explicit user pause.
func (s *Scheduler) Pause() {
	s.paused = true
	s.recompute()
}

func (s *Scheduler) Resume() {
	s.paused = false
	s.recompute()
}

// OpenOverlay pauses for a level-up or menu overlay; CloseOverlay lifts it.
func (s *Scheduler) OpenOverlay() {
	s.overlay = true
	s.overlayUntil = time.Time{}
	s.recompute()
}

// OpenOverlayFor opens the overlay and lets the Run loop close it once hold
// has passed. Reopening extends the deadline.
func (s *Scheduler) OpenOverlayFor(hold time.Duration) {
	s.OpenOverlay()
	s.overlayUntil = time.Now().Add(hold)
}

func (s *Scheduler) CloseOverlay() {
	s.overlay = false
	s.overlayUntil = time.Time{}
	s.recompute()
}

// expireOverlay closes a timed overlay whose deadline is at or before now.
func (s *Scheduler) expireOverlay(now time.Time) {
	if s.overlay && !s.overlayUntil.IsZero() && !now.Before(s.overlayUntil) {
		s.CloseOverlay()
	}
}

// SetVisible reports host surface visibility/focus.
func (s *Scheduler) SetVisible(visible bool) {
	s.hidden = !visible
	s.recompute()
}

// SurfaceLost halts ticking until SurfaceRestored.
func (s *Scheduler) SurfaceLost() {
	s.lost = true
	s.recompute()
}

// SurfaceRestored confirms the surface is back. The scheduler returns to
// whatever the remaining flags dictate.
func (s *Scheduler) SurfaceRestored() {
	s.lost = false
	s.recompute()
}

func (s *Scheduler) recompute() {
	next := StateRunning
	switch {
	case s.lost:
		next = StateContextLost
	case s.hidden:
		next = StateSuspended
	case s.paused || s.overlay:
		next = StatePaused
	}
	if next == s.state {
		return
	}
	prev := s.state
	s.state = next
	if s.bus != nil {
		event.Emit(s.bus, event.StateChanged{From: uint8(prev), To: uint8(next)})
	}
	s.log.Info("scheduler state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Duration("interval", s.TargetInterval()),
	)
	if next == StateSuspended && s.hooks.OnSuspend != nil {
		s.hooks.OnSuspend()
	}
}

// SetTier switches the performance tier: target rate and live-entity cap.
func (s *Scheduler) SetTier(t Tier) {
	if t > TierCritical || t == s.tier {
		return
	}
	prev := s.tier
	s.tier = t
	tc := s.tierConfig(t)
	if s.hooks.SetCap != nil {
		s.hooks.SetCap(tc.EntityCap)
	}
	if s.bus != nil {
		event.Emit(s.bus, event.TierChanged{From: uint8(prev), To: uint8(t)})
	}
	s.log.Info("performance tier changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", t),
		zap.Float64("rate", tc.Rate),
		zap.Int("entity_cap", tc.EntityCap),
	)
}

func (s *Scheduler) tierConfig(t Tier) config.TierConfig {
	switch t {
	case TierLow:
		return s.cfg.Tiers.Low
	case TierCritical:
		return s.cfg.Tiers.Critical
	}
	return s.cfg.Tiers.Normal
}

// TargetInterval is the wall time between frames in the current state and tier.
func (s *Scheduler) TargetInterval() time.Duration {
	if s.state == StateSuspended {
		return config.RateInterval(s.cfg.HiddenRate)
	}
	return config.RateInterval(min(s.cfg.TargetRate, s.tierConfig(s.tier).Rate))
}

func (s *Scheduler) State() State { return s.state }
func (s *Scheduler) Tier() Tier   { return s.tier }

// Status returns the state and tier names for diagnostics.
func (s *Scheduler) Status() (string, string) {
	return s.state.String(), s.tier.String()
}

// Frames, Ticks and Skipped count host callbacks, ticks run and callbacks skipped.
func (s *Scheduler) Frames() uint64  { return s.frames }
func (s *Scheduler) Ticks() uint64   { return s.ticks }
func (s *Scheduler) Skipped() uint64 { return s.skipped }

// LastDelta is the sanitized step of the most recent tick, in seconds.
func (s *Scheduler) LastDelta() float64 { return s.lastDelta }

// Post queues a host event for the Run loop. Safe from any goroutine.
// Returns false if the queue is full and the event was dropped.
func (s *Scheduler) Post(ev HostEvent) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Apply handles one host event immediately.
func (s *Scheduler) Apply(ev HostEvent) {
	switch ev.Kind {
	case EventPause:
		s.Pause()
	case EventResume:
		s.Resume()
	case EventTogglePause:
		s.paused = !s.paused
		s.recompute()
	case EventOverlayOpen:
		s.OpenOverlay()
	case EventOverlayClose:
		s.CloseOverlay()
	case EventVisible:
		s.SetVisible(true)
	case EventHidden:
		s.SetVisible(false)
	case EventToggleVisible:
		s.SetVisible(s.hidden)
	case EventSurfaceLost:
		s.SurfaceLost()
	case EventSurfaceRestored:
		s.SurfaceRestored()
	case EventTier:
		s.SetTier(ev.Tier)
	default:
		s.log.Warn("unknown host event", zap.Uint8("kind", uint8(ev.Kind)))
	}
}

// Run drives Frame from a wall-clock timer until ctx is cancelled. Host
// events are applied between frames, never during one. An event that changes
// the target interval re-arms the timer at once.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.TargetInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			s.Apply(ev)
			if next := s.TargetInterval(); next != interval {
				interval = next
				timer.Reset(interval)
			}
		case now := <-timer.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			s.expireOverlay(now)
			s.Frame(elapsed)
			interval = s.TargetInterval()
			timer.Reset(interval)
		}
	}
}
