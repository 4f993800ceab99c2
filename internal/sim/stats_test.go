package sim

import (
	"testing"

	"github.com/hordesim/simcore/internal/world"
)

func TestRunRecorderTallies(t *testing.T) {
	c := newTestContext(t)
	rec := NewRunRecorder(c)

	p, _ := c.SpawnPlayer(400, 400)
	mustEnemy(t, c, "grunt", 700, 700)
	mustShot(t, c, world.ShotParams{X: 700, Y: 700, Radius: 4, Damage: 10, Life: 1})
	c.SpawnOrb(400, 400, 6)

	step(c, dt)
	rec.Sample()
	step(c, dt)
	rec.Sample()

	s := rec.Summary()
	if s.EnemiesKilled != 1 || s.ShotsSpent != 1 || s.OrbsCollected != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.MaxLevel != 2 || p.Player.Level != 2 {
		t.Errorf("max level %d", s.MaxLevel)
	}
	if s.PeakLive < 2 || s.Ticks != 2 || s.PlayerDeaths != 0 {
		t.Errorf("summary = %+v", s)
	}
	if s.ID.String() == "00000000-0000-0000-0000-000000000000" || s.Duration() < 0 {
		t.Errorf("bad id or duration: %+v", s)
	}
}

func TestDiagnosticsSnapshot(t *testing.T) {
	c := newTestContext(t)
	c.SpawnPlayer(400, 400)
	mustEnemy(t, c, "dummy", 800, 800)
	mustShot(t, c, world.ShotParams{X: 10, Y: 10, Radius: 2, Damage: 1, Life: 1})
	step(c, dt)

	d := c.Diagnostics()
	if d.Tick != 1 || d.Live != 3 || d.Cap != c.Config.Sim.EntityCap {
		t.Errorf("diag = %+v", d)
	}
	if d.Counts[world.KindPlayer] != 1 || d.Counts[world.KindEnemy] != 1 || d.Counts[world.KindProjectile] != 1 {
		t.Errorf("counts = %v", d.Counts)
	}
	if d.Pools[world.KindEnemyProjectile].Max == 0 || d.Pools[world.KindEnemy] != (world.PoolStats{}) {
		t.Errorf("pools = %+v", d.Pools)
	}
	if allocs := testing.AllocsPerRun(50, func() { _ = c.Diagnostics() }); allocs != 0 {
		t.Errorf("Diagnostics allocated %v times per call", allocs)
	}
	if d.Grid.Entries != 3 {
		t.Errorf("grid = %+v", d.Grid)
	}
	hud := c.Counts()
	if hud.Of(world.KindEnemy) != 1 || hud.Total != 3 {
		t.Errorf("counts = %+v", hud)
	}
}
