package sim

import (
	"errors"
	"math"

	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

var errPayload = errors.New("payload does not match kind")

func registerHandlers(d *Dispatcher) {
	d.Handle(world.KindPlayer, world.KindXPOrb, collectOrb)
	d.Handle(world.KindPlayer, world.KindHealthPickup, collectHealth)
	d.Handle(world.KindPlayer, world.KindEnemy, enemyContact)
	d.Handle(world.KindPlayer, world.KindEnemyProjectile, enemyShotHit)
	d.Handle(world.KindProjectile, world.KindEnemy, projectileHit)
}

func collectOrb(c *Context, p, orb *world.Entity) (bool, error) {
	if p.Player == nil || orb.Pickup == nil {
		return false, errPayload
	}
	ps := p.Player
	ps.XP += orb.Pickup.Value
	for {
		need := c.Rules.XPToLevel(ps.Level)
		if need <= 0 || ps.XP < need {
			break
		}
		ps.XP -= need
		ps.Level++
		event.Emit(c.Bus, event.LevelUp{Player: p.ID, Level: ps.Level})
	}
	c.Registry.MarkDead(orb, event.CauseCollected)
	return true, nil
}

func collectHealth(c *Context, p, pk *world.Entity) (bool, error) {
	if p.Player == nil || pk.Pickup == nil {
		return false, errPayload
	}
	p.Player.HP = min(p.Player.MaxHP, p.Player.HP+pk.Pickup.Value)
	c.Registry.MarkDead(pk, event.CauseCollected)
	return true, nil
}

func enemyContact(c *Context, p, e *world.Entity) (bool, error) {
	if p.Player == nil || e.Enemy == nil {
		return false, errPayload
	}
	if p.Player.Invuln > 0 {
		return false, nil
	}
	c.damagePlayer(p, e.Enemy.ContactDamage)
	return true, nil
}

func enemyShotHit(c *Context, p, s *world.Entity) (bool, error) {
	if p.Player == nil || s.Shot == nil {
		return false, errPayload
	}
	if p.Player.Invuln <= 0 {
		c.damagePlayer(p, s.Shot.Damage)
	}
	c.Registry.MarkDead(s, event.CauseKilled)
	return true, nil
}

func (c *Context) damagePlayer(p *world.Entity, dmg int) {
	if dmg <= 0 {
		return
	}
	ps := p.Player
	ps.HP -= dmg
	ps.Invuln = c.Config.Player.Invulnerability
	if ps.HP <= 0 {
		ps.HP = 0
		c.Registry.MarkDead(p, event.CauseKilled)
	}
}

// projectileHit damages the enemy once per flight, then decides whether the
// shot survives: pierce, then ricochet, then explosion, else it dies.
func projectileHit(c *Context, s, e *world.Entity) (bool, error) {
	if s.Shot == nil || e.Enemy == nil {
		return false, errPayload
	}
	shot := s.Shot
	if shot.HasHit(e.ID) {
		return false, nil
	}
	hitIndex := shot.HitCount
	shot.RecordHit(e.ID)
	c.damageEnemy(e, c.Rules.HitDamage(shot.Damage, hitIndex, false))

	switch {
	case shot.Pierce > 0:
		shot.Pierce--
	case shot.Ricochet > 0:
		shot.Ricochet--
		if !c.ricochet(s, e) {
			c.Registry.MarkDead(s, event.CauseKilled)
		}
	case shot.ExplodeRadius > 0:
		c.explode(s)
		c.Registry.MarkDead(s, event.CauseKilled)
	default:
		c.Registry.MarkDead(s, event.CauseKilled)
	}
	return true, nil
}

func (c *Context) damageEnemy(e *world.Entity, dmg int) {
	st := e.Enemy
	st.HP -= dmg
	if st.HP > 0 || !e.Alive() {
		return
	}
	c.Registry.MarkDead(e, event.CauseKilled)

	if _, err := c.SpawnOrb(e.X, e.Y, c.Rules.OrbValue(st.XPValue, c.playerLevel())); err != nil {
		c.Log.Debug("orb drop skipped", zap.Error(err))
	}
	if chance := c.drops().HealthChance; chance > 0 && c.rng.Float64() < chance {
		if _, err := c.SpawnHealth(e.X, e.Y, 0); err != nil {
			c.Log.Debug("health drop skipped", zap.Error(err))
		}
	}
}

// ricochet redirects the shot toward the nearest live enemy it has not hit
// within its ricochet range. Returns false when there is no candidate.
func (c *Context) ricochet(s, from *world.Entity) bool {
	shot := s.Shot
	c.queryBuf = c.Grid.Query(s.X, s.Y, shot.RicochetRange, c.queryBuf[:0])
	var best *world.Entity
	bestD := shot.RicochetRange * shot.RicochetRange
	for _, e := range c.queryBuf {
		if e == from || e.Kind != world.KindEnemy || !e.Alive() || shot.HasHit(e.ID) {
			continue
		}
		if d := dist2(s.X, s.Y, e.X, e.Y); d <= bestD {
			best, bestD = e, d
		}
	}
	clear(c.queryBuf)
	if best == nil {
		return false
	}
	dx, dy := best.X-s.X, best.Y-s.Y
	if d := math.Hypot(dx, dy); d > 0 {
		s.VX, s.VY = dx/d*shot.Speed, dy/d*shot.Speed
	}
	shot.SetTarget(best)
	return true
}

// explode deals splash damage to every live enemy touching the blast circle
// that the shot has not already hit.
func (c *Context) explode(s *world.Entity) {
	shot := s.Shot
	r := shot.ExplodeRadius
	c.queryBuf = c.Grid.Query(s.X, s.Y, r+c.Grid.CellSize(), c.queryBuf[:0])
	for _, e := range c.queryBuf {
		if e.Kind != world.KindEnemy || !e.Alive() || shot.HasHit(e.ID) {
			continue
		}
		if !CirclesOverlap(s.X, s.Y, r, e.X, e.Y, e.Radius) {
			continue
		}
		hitIndex := shot.HitCount
		shot.RecordHit(e.ID)
		c.damageEnemy(e, c.Rules.HitDamage(shot.Damage, hitIndex, true))
	}
	clear(c.queryBuf)
}
