package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/hordesim/simcore/internal/data"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

// SpawnPlayer registers a player configured from [player].
func (c *Context) SpawnPlayer(x, y float64) (*world.Entity, error) {
	pc := c.Config.Player
	e := world.NewPlayer(x, y, pc.Radius, world.PlayerState{
		HP:    pc.MaxHP,
		MaxHP: pc.MaxHP,
		Level: 1,
		Speed: pc.Speed,
	})
	if err := c.Registry.Register(e); err != nil {
		return nil, err
	}
	return e, nil
}

// SpawnEnemy registers an enemy built from the named template.
func (c *Context) SpawnEnemy(template string, x, y float64) (*world.Entity, error) {
	var t *data.EnemyTemplate
	if c.Enemies != nil {
		t = c.Enemies.Get(template)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: unknown enemy template %q", world.ErrInvalidSpawn, template)
	}
	e := world.NewEnemy(x, y, t.Radius, world.EnemyState{
		Template:      t.ID,
		HP:            t.HP,
		MaxHP:         t.HP,
		Speed:         t.Speed,
		ContactDamage: t.ContactDamage,
		XPValue:       t.XPValue,
		FireInterval:  t.FireInterval,
		FireCD:        t.FireInterval,
		ShotWeapon:    t.Weapon,
	})
	if err := c.Registry.Register(e); err != nil {
		return nil, err
	}
	return e, nil
}

// SpawnShot acquires a pooled shot and registers it. A nil entity with an
// ErrInvalidSpawn error means the spawn was skipped.
func (c *Context) SpawnShot(kind world.Kind, p world.ShotParams) (*world.Entity, error) {
	e, err := c.Pools.Acquire(kind, p)
	if err != nil {
		return nil, err
	}
	if err := c.Registry.Register(e); err != nil {
		c.Pools.Release(e)
		return nil, err
	}
	return e, nil
}

// SpawnOrb drops an experience orb shaped by the enemy drop table.
func (c *Context) SpawnOrb(x, y float64, value int) (*world.Entity, error) {
	t := c.drops().XPOrb
	return c.spawnPickup(world.KindXPOrb, x, y, t, value)
}

// SpawnHealth drops a health pickup. value <= 0 uses the drop table value.
func (c *Context) SpawnHealth(x, y float64, value int) (*world.Entity, error) {
	t := c.drops().Health
	if value <= 0 {
		value = t.Value
	}
	return c.spawnPickup(world.KindHealthPickup, x, y, t, value)
}

func (c *Context) spawnPickup(kind world.Kind, x, y float64, t data.PickupTemplate, value int) (*world.Entity, error) {
	r := t.Radius
	if r <= 0 {
		r = defaultPickupRadius
	}
	e := world.NewPickup(kind, x, y, r, world.PickupState{Value: value, Life: t.Life, Magnet: t.Magnet})
	if err := c.Registry.Register(e); err != nil {
		return nil, err
	}
	return e, nil
}

const defaultPickupRadius = 6.0

func (c *Context) drops() data.DropTable {
	if c.Enemies == nil {
		return data.DropTable{}
	}
	return c.Enemies.Drops()
}

// FireWeapon spawns one volley of the named weapon from owner, centered on
// angle (radians). Player-owned volleys are projectiles, everything else
// fires enemy projectiles. Skipped shots do not stop the volley; the error
// reports the last skip.
func (c *Context) FireWeapon(owner *world.Entity, weapon string, angle float64, target *world.Entity) ([]*world.Entity, error) {
	if owner == nil || !owner.Alive() {
		return nil, fmt.Errorf("%w: dead or missing owner", world.ErrInvalidSpawn)
	}
	var w *data.WeaponTemplate
	if c.Weapons != nil {
		w = c.Weapons.Get(weapon)
	}
	if w == nil {
		return nil, fmt.Errorf("%w: unknown weapon %q", world.ErrInvalidSpawn, weapon)
	}
	kind := world.KindEnemyProjectile
	if owner.Kind == world.KindPlayer {
		kind = world.KindProjectile
	}

	var lastErr error
	shots := make([]*world.Entity, 0, w.Count)
	first := angle - w.Spread*float64(w.Count-1)/2
	for i := 0; i < w.Count; i++ {
		a := first + w.Spread*float64(i)
		s, err := c.SpawnShot(kind, world.ShotParams{
			X:             owner.X,
			Y:             owner.Y,
			VX:            math.Cos(a) * w.Speed,
			VY:            math.Sin(a) * w.Speed,
			Radius:        w.Radius,
			Damage:        w.Damage,
			Pierce:        w.Pierce,
			Ricochet:      w.Ricochet,
			RicochetRange: w.RicochetRange,
			ExplodeRadius: w.ExplodeRadius,
			HomingTurn:    w.HomingTurn,
			Life:          w.Life,
			Owner:         owner.ID,
			Target:        target,
		})
		if err != nil {
			c.Log.Debug("shot skipped", zap.String("weapon", w.ID), zap.Error(err))
			lastErr = err
			continue
		}
		shots = append(shots, s)
	}
	return shots, lastErr
}

// IsSkipped reports whether err means a spawn was refused rather than failed.
func IsSkipped(err error) bool {
	return errors.Is(err, world.ErrInvalidEntity)
}
