package sim

import (
	"testing"

	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/data"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

const testEnemies = `
enemies:
  - {id: dummy, hp: 100, radius: 10, speed: 0, contact_damage: 4, xp_value: 3}
  - {id: grunt, hp: 5, radius: 10, speed: 0, contact_damage: 4, xp_value: 3}
  - {id: walker, hp: 5, radius: 10, speed: 60, contact_damage: 4, xp_value: 1}
  - {id: shooter, hp: 5, radius: 10, speed: 0, fire_interval: 1, weapon: spit}
drops:
  xp_orb: {radius: 6}
  health: {radius: 8, value: 20}
  health_chance: 0
`

const testWeapons = `
weapons:
  - {id: spit, damage: 6, speed: 100, radius: 5, life: 2}
  - {id: fan, damage: 1, speed: 100, radius: 3, life: 1, count: 3, spread: 0.2}
  - {id: huge, damage: 1, speed: 100, radius: 40, life: 1}
`

const dt = 1.0 / 60.0

func newTestContext(t *testing.T, mutate ...func(*Deps)) *Context {
	t.Helper()
	enemies, err := data.ParseEnemyTable([]byte(testEnemies))
	if err != nil {
		t.Fatal(err)
	}
	weapons, err := data.ParseWeaponTable([]byte(testWeapons))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Sim.CellSize = 128
	d := Deps{
		Config:  cfg,
		Log:     zap.NewNop(),
		Enemies: enemies,
		Weapons: weapons,
		Seed:    1,
	}
	for _, m := range mutate {
		m(&d)
	}
	c, err := NewContext(d)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// step runs one full tick in pipeline order.
func step(c *Context, dt float64) {
	c.BeginTick()
	c.UpdateEntities(dt)
	c.RebuildGrid()
	c.ResolveCollisions()
	c.Cleanup()
}

func mustEnemy(t *testing.T, c *Context, tmpl string, x, y float64) *world.Entity {
	t.Helper()
	e, err := c.SpawnEnemy(tmpl, x, y)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func mustShot(t *testing.T, c *Context, p world.ShotParams) *world.Entity {
	t.Helper()
	s, err := c.SpawnShot(world.KindProjectile, p)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
