package sim

import (
	"math"

	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

// Behavior advances one entity by dt seconds.
type Behavior interface {
	Update(c *Context, e *world.Entity, dt float64)
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(c *Context, e *world.Entity, dt float64)

func (f BehaviorFunc) Update(c *Context, e *world.Entity, dt float64) { f(c, e, dt) }

// pickupMagnetSpeed is how fast a pickup drifts toward a player inside its magnet radius.
const pickupMagnetSpeed = 260.0

func defaultBehaviors() [world.KindCount]Behavior {
	var t [world.KindCount]Behavior
	t[world.KindInvalid] = BehaviorFunc(func(*Context, *world.Entity, float64) {})
	t[world.KindPlayer] = BehaviorFunc(updatePlayer)
	t[world.KindEnemy] = BehaviorFunc(updateEnemy)
	t[world.KindProjectile] = BehaviorFunc(updateShot)
	t[world.KindEnemyProjectile] = BehaviorFunc(updateShot)
	t[world.KindXPOrb] = BehaviorFunc(updatePickup)
	t[world.KindHealthPickup] = BehaviorFunc(updatePickup)
	return t
}

// SteerPlayer sets the player's velocity from an input direction. The
// direction is normalized; non-finite or zero input stops the player.
func SteerPlayer(p *world.Entity, dx, dy float64) {
	if p == nil || p.Player == nil {
		return
	}
	l := math.Hypot(dx, dy)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		p.VX, p.VY = 0, 0
		return
	}
	p.VX = dx / l * p.Player.Speed
	p.VY = dy / l * p.Player.Speed
}

func updatePlayer(c *Context, e *world.Entity, dt float64) {
	p := e.Player
	e.X += e.VX * dt
	e.Y += e.VY * dt
	e.X = clamp(e.X, 0, c.Config.Sim.ArenaWidth)
	e.Y = clamp(e.Y, 0, c.Config.Sim.ArenaHeight)
	if p.Invuln > 0 {
		p.Invuln = max(0, p.Invuln-dt)
	}
}

func updateEnemy(c *Context, e *world.Entity, dt float64) {
	st := e.Enemy
	target := c.nearestPlayer(e.X, e.Y)
	if target == nil {
		e.VX, e.VY = 0, 0
		return
	}
	dx, dy := target.X-e.X, target.Y-e.Y
	if d := math.Hypot(dx, dy); d > 0 {
		e.VX = dx / d * st.Speed
		e.VY = dy / d * st.Speed
	}
	e.X += e.VX * dt
	e.Y += e.VY * dt

	if st.FireInterval <= 0 || st.ShotWeapon == "" {
		return
	}
	st.FireCD -= dt
	if st.FireCD > 0 {
		return
	}
	st.FireCD = st.FireInterval
	if _, err := c.FireWeapon(e, st.ShotWeapon, math.Atan2(dy, dx), target); err != nil {
		c.Log.Debug("enemy shot skipped", zap.String("enemy", st.Template), zap.Error(err))
	}
}

func updateShot(c *Context, e *world.Entity, dt float64) {
	s := e.Shot
	s.Life -= dt
	if s.Life <= 0 {
		c.Registry.MarkDead(e, event.CauseExpired)
		return
	}
	if s.HomingTurn > 0 {
		if t := s.ValidTarget(); t != nil {
			e.VX, e.VY = steer(e.VX, e.VY, t.X-e.X, t.Y-e.Y, s.HomingTurn*dt, s.Speed)
		} else if s.Target != nil {
			s.SetTarget(nil)
		}
	}
	e.X += e.VX * dt
	e.Y += e.VY * dt

	m := c.Config.Sim.ShotMargin
	if e.X < -m || e.Y < -m || e.X > c.Config.Sim.ArenaWidth+m || e.Y > c.Config.Sim.ArenaHeight+m {
		c.Registry.MarkDead(e, event.CauseExpired)
	}
}

func updatePickup(c *Context, e *world.Entity, dt float64) {
	pk := e.Pickup
	if pk.Life > 0 {
		pk.Life -= dt
		if pk.Life <= 0 {
			c.Registry.MarkDead(e, event.CauseExpired)
			return
		}
	}
	e.VX, e.VY = 0, 0
	if pk.Magnet > 0 {
		if p := c.nearestPlayer(e.X, e.Y); p != nil && dist2(e.X, e.Y, p.X, p.Y) < pk.Magnet*pk.Magnet {
			dx, dy := p.X-e.X, p.Y-e.Y
			if d := math.Hypot(dx, dy); d > 0 {
				step := min(pickupMagnetSpeed, d/dt)
				e.VX, e.VY = dx/d*step, dy/d*step
			}
		}
	}
	e.X += e.VX * dt
	e.Y += e.VY * dt
}

// steer rotates (vx, vy) toward (tx, ty) by at most maxTurn radians and
// rescales it to speed.
func steer(vx, vy, tx, ty, maxTurn, speed float64) (float64, float64) {
	if tx == 0 && ty == 0 {
		return vx, vy
	}
	want := math.Atan2(ty, tx)
	if vx == 0 && vy == 0 {
		return math.Cos(want) * speed, math.Sin(want) * speed
	}
	cur := math.Atan2(vy, vx)
	diff := math.Remainder(want-cur, 2*math.Pi)
	diff = clamp(diff, -maxTurn, maxTurn)
	a := cur + diff
	return math.Cos(a) * speed, math.Sin(a) * speed
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
