package world

import (
	"errors"
	"math"
	"testing"

	"github.com/hordesim/simcore/internal/core/event"
)

func TestAcquireRejectsInvalidParams(t *testing.T) {
	m := NewPoolManager(4, 4)
	bad := []ShotParams{
		{X: math.NaN(), Damage: 1, Life: 1},
		{Y: math.Inf(-1), Damage: 1, Life: 1},
		{VX: math.NaN(), Damage: 1, Life: 1},
		{Damage: 0, Life: 1},
		{Damage: -3, Life: 1},
		{Damage: 1, Life: 0},
		{Damage: 1, Life: 1, Pierce: -1},
	}
	for i, p := range bad {
		e, err := m.Acquire(KindProjectile, p)
		if e != nil || !errors.Is(err, ErrInvalidSpawn) {
			t.Errorf("case %d: got %v, %v", i, e, err)
		}
		if !errors.Is(err, ErrInvalidEntity) {
			t.Errorf("case %d: spawn errors should also match ErrInvalidEntity", i)
		}
	}
	if _, err := m.Acquire(KindEnemy, newShotParams(0, 0)); !errors.Is(err, ErrInvalidSpawn) {
		t.Errorf("non-poolable kind should fail, got %v", err)
	}
}

func TestAcquireReleaseAcquireIsFresh(t *testing.T) {
	m := NewPoolManager(4, 4)
	r := NewRegistry(0, m)

	target := newEnemy(100, 0)
	_ = r.Register(target)

	first, err := m.Acquire(KindProjectile, ShotParams{
		X: 1, Y: 2, VX: 300, VY: 40, Radius: 5, Damage: 9,
		Pierce: 3, Ricochet: 2, RicochetRange: 200, ExplodeRadius: 50,
		HomingTurn: 4, Life: 3, Owner: 77, Target: target,
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = r.Register(first)
	first.Shot.RecordHit(target.ID)
	first.Shot.Pierce = 0
	r.MarkDead(first, event.CauseKilled)
	r.Cleanup()

	params := ShotParams{X: 10, Y: 20, VX: 0, VY: -50, Radius: 3, Damage: 4, Life: 1}
	reused, err := m.Acquire(KindProjectile, params)
	if err != nil {
		t.Fatal(err)
	}
	if reused != first {
		t.Fatal("expected the released instance back")
	}

	fresh, _ := NewPoolManager(4, 4).Acquire(KindProjectile, params)

	if reused.X != fresh.X || reused.Y != fresh.Y || reused.VX != fresh.VX || reused.VY != fresh.VY ||
		reused.Radius != fresh.Radius || reused.ID != fresh.ID || reused.Alive() != fresh.Alive() {
		t.Errorf("entity fields differ: %+v vs %+v", reused, fresh)
	}
	rs, fs := reused.Shot, fresh.Shot
	if rs.Damage != fs.Damage || rs.Pierce != fs.Pierce || rs.Ricochet != fs.Ricochet ||
		rs.RicochetRange != fs.RicochetRange || rs.ExplodeRadius != fs.ExplodeRadius ||
		rs.HomingTurn != fs.HomingTurn || rs.Life != fs.Life || rs.Speed != fs.Speed ||
		rs.Owner != fs.Owner || rs.HitCount != fs.HitCount {
		t.Errorf("shot fields differ: %+v vs %+v", rs, fs)
	}
	if rs.Target != nil || rs.TargetID != 0 {
		t.Error("stale target survived reuse")
	}
	if rs.HasHit(target.ID) {
		t.Error("stale hit registry survived reuse")
	}
	if reused.ID != 0 {
		t.Error("stale id survived reuse")
	}
	st := m.Stats(KindProjectile)
	if st.Reused != 1 || st.Allocated != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestReleaseGuards(t *testing.T) {
	m := NewPoolManager(4, 4)
	r := NewRegistry(0, m)
	s, _ := m.Acquire(KindEnemyProjectile, newShotParams(0, 0))
	_ = r.Register(s)

	if m.Release(s) {
		t.Error("registered entity must not be released")
	}
	r.MarkDead(s, event.CauseExpired)
	r.Cleanup()
	if m.Release(s) {
		t.Error("double release must be ignored")
	}
	if m.Release(newEnemy(0, 0)) {
		t.Error("non-pooled entity must be ignored")
	}
	if got := m.Stats(KindEnemyProjectile).Free; got != 1 {
		t.Errorf("free = %d, want 1", got)
	}
}

func TestPoolBoundsAndDrain(t *testing.T) {
	p := NewPool(2, func() *int { return new(int) })
	p.Prewarm(5)
	if p.Len() != 2 {
		t.Fatalf("prewarm exceeded max: %d", p.Len())
	}
	a, b, c := p.Get(), p.Get(), p.Get()
	if !p.Put(a) || !p.Put(b) || p.Put(c) {
		t.Error("third put should be dropped")
	}
	if n := p.Drain(); n != 2 || p.Len() != 0 {
		t.Errorf("drain returned %d, len %d", n, p.Len())
	}
	st := p.Stats()
	if st.Allocated != 1 || st.Reused != 2 || st.Dropped != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPoolManagerDrain(t *testing.T) {
	m := NewPoolManager(8, 8)
	m.Prewarm(3)
	if got := m.Drain(); got != 6 {
		t.Errorf("drained %d, want 6", got)
	}
	if m.Stats(KindProjectile).Free != 0 {
		t.Error("pool not empty after drain")
	}
}
