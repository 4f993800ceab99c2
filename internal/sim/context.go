package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/data"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

// Deps holds everything NewContext needs. Nil Rules selects DefaultRules;
// nil template tables behave as empty ones.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	Bus       *event.Bus
	Enemies   *data.EnemyTable
	Weapons   *data.WeaponTable
	Rules     Rules
	Behaviors map[world.Kind]Behavior // overrides of the default behavior per kind
	Seed      uint64
}

// Context is the explicitly constructed simulation state shared by every
// system. It is owned by the tick goroutine.
type Context struct {
	Config   *config.Config
	Log      *zap.Logger
	Bus      *event.Bus
	Registry *world.Registry
	Pools    *world.PoolManager
	Grid     *world.Grid
	Rules    Rules
	Enemies  *data.EnemyTable
	Weapons  *data.WeaponTable

	behaviors  [world.KindCount]Behavior
	dispatcher *Dispatcher
	rng        *rand.Rand
	tick       uint64
	queryBuf   []*world.Entity
}

// NewContext wires the registry, pools, grid, behavior table and collision
// dispatcher. It fails when the grid cell size cannot hold the largest contact.
func NewContext(d Deps) (*Context, error) {
	if d.Config == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = event.NewBus()
	}
	if d.Rules == nil {
		d.Rules = DefaultRules{}
	}
	cfg := d.Config

	maxRadius := cfg.Player.Radius
	if d.Enemies != nil {
		maxRadius = max(maxRadius, d.Enemies.MaxRadius())
	}
	if d.Weapons != nil {
		maxRadius = max(maxRadius, d.Weapons.MaxRadius())
	}
	if cfg.Sim.CellSize < 2*maxRadius {
		return nil, fmt.Errorf("sim: cell_size %v is smaller than the largest contact distance %v", cfg.Sim.CellSize, 2*maxRadius)
	}

	pools := world.NewPoolManager(cfg.Pool.ProjectileMax, cfg.Pool.EnemyProjectileMax)
	pools.Prewarm(cfg.Pool.Prewarm)

	c := &Context{
		Config:   cfg,
		Log:      d.Log,
		Bus:      d.Bus,
		Registry: world.NewRegistry(cfg.Sim.EntityCap, pools),
		Pools:    pools,
		Grid:     world.NewGrid(cfg.Sim.CellSize),
		Rules:    d.Rules,
		Enemies:  d.Enemies,
		Weapons:  d.Weapons,
		rng:      rand.New(rand.NewPCG(d.Seed, d.Seed^0x9e3779b97f4a7c15)),
		queryBuf: make([]*world.Entity, 0, 64),
	}
	c.behaviors = defaultBehaviors()
	for k, b := range d.Behaviors {
		if !k.Valid() || b == nil {
			return nil, fmt.Errorf("sim: invalid behavior override for %s", k)
		}
		c.behaviors[k] = b
	}
	c.dispatcher = NewDispatcher(d.Log)
	registerHandlers(c.dispatcher)

	c.Registry.OnRemove(func(e *world.Entity) {
		event.Emit(c.Bus, event.EntityDied{
			ID:    e.ID,
			Kind:  uint8(e.Kind),
			X:     e.X,
			Y:     e.Y,
			Cause: e.Cause(),
		})
	})
	return c, nil
}

// Dispatcher returns the collision dispatch table.
func (c *Context) Dispatcher() *Dispatcher { return c.dispatcher }

// Tick returns the number of ticks begun.
func (c *Context) Tick() uint64 { return c.tick }

// BeginTick advances the tick counter and delivers last tick's events.
func (c *Context) BeginTick() {
	c.tick++
	c.Bus.SwapBuffers()
	c.Bus.DispatchAll()
}

// UpdateEntities runs the behavior of every live entity once.
// Entities spawned during the pass are updated from the next tick on.
func (c *Context) UpdateEntities(dt float64) {
	c.Registry.Each(func(e *world.Entity) {
		c.behaviors[e.Kind].Update(c, e, dt)
		if e.Alive() && !finitePos(e) {
			c.Log.Debug("entity left finite space", zap.Uint64("id", uint64(e.ID)), zap.Stringer("kind", e.Kind))
			c.Registry.MarkDead(e, event.CauseExpired)
		}
	})
}

// RebuildGrid refills the spatial hash from post-move positions.
func (c *Context) RebuildGrid() {
	c.Grid.Rebuild(c.Registry.All())
}

// ResolveCollisions dispatches every overlapping candidate pair. Compaction
// is held back so entities killed here stay valid until the pass completes.
func (c *Context) ResolveCollisions() {
	c.Registry.Freeze()
	defer c.Registry.Thaw()
	c.Grid.ForEachCandidatePair(func(a, b *world.Entity) {
		c.dispatcher.Resolve(c, a, b)
	})
}

// Cleanup reclaims dead entities.
func (c *Context) Cleanup() int {
	return c.Registry.Cleanup()
}

// Counts returns the live count per kind.
func (c *Context) Counts() world.Counts {
	return c.Registry.Counts()
}

// nearestPlayer returns the closest live player, or nil.
func (c *Context) nearestPlayer(x, y float64) *world.Entity {
	var best *world.Entity
	bestD := math.Inf(1)
	for _, p := range c.Registry.Players() {
		if !p.Alive() {
			continue
		}
		if d := dist2(x, y, p.X, p.Y); d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

func (c *Context) playerLevel() int {
	for _, p := range c.Registry.Players() {
		if p.Alive() {
			return p.Player.Level
		}
	}
	return 1
}

func dist2(ax, ay, bx, by float64) float64 {
	dx, dy := ax-bx, ay-by
	return dx*dx + dy*dy
}

func finitePos(e *world.Entity) bool {
	return !math.IsNaN(e.X) && !math.IsInf(e.X, 0) && !math.IsNaN(e.Y) && !math.IsInf(e.Y, 0)
}
