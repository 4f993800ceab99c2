package world

import (
	"math"

	"github.com/hordesim/simcore/internal/core/ecs"
)

// PoolStats are debug counters for one pool.
type PoolStats struct {
	Free      int    `msgpack:"free"`
	Max       int    `msgpack:"max"`
	Allocated uint64 `msgpack:"allocated"` // fresh allocations (free list empty)
	Reused    uint64 `msgpack:"reused"`
	Released  uint64 `msgpack:"released"`
	Dropped   uint64 `msgpack:"dropped"` // released while the free list was full
}

// Pool is a bounded free list. An empty free list falls back to alloc;
// a full one drops released objects for the garbage collector.
type Pool[T any] struct {
	free  []*T
	max   int
	alloc func() *T
	stats PoolStats
}

func NewPool[T any](max int, alloc func() *T) *Pool[T] {
	if max < 0 {
		max = 0
	}
	return &Pool[T]{
		free:  make([]*T, 0, min(max, 256)),
		max:   max,
		alloc: alloc,
	}
}

// Get pops a free object or allocates one. The caller resets it.
func (p *Pool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		x := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.stats.Reused++
		return x
	}
	p.stats.Allocated++
	return p.alloc()
}

// Put pushes x onto the free list unless it is full. Returns false when dropped.
func (p *Pool[T]) Put(x *T) bool {
	p.stats.Released++
	if len(p.free) >= p.max {
		p.stats.Dropped++
		return false
	}
	p.free = append(p.free, x)
	return true
}

// Prewarm allocates up to n objects into the free list.
func (p *Pool[T]) Prewarm(n int) {
	for len(p.free) < min(n, p.max) {
		p.free = append(p.free, p.alloc())
	}
}

// Drain empties the free list and returns how many objects were discarded.
func (p *Pool[T]) Drain() int {
	n := len(p.free)
	clear(p.free)
	p.free = p.free[:0]
	return n
}

func (p *Pool[T]) Len() int { return len(p.free) }

func (p *Pool[T]) Stats() PoolStats {
	s := p.stats
	s.Free = len(p.free)
	s.Max = p.max
	return s
}

// ShotParams fully describe a projectile at spawn time. Every ShotState field
// is derived from these; nothing survives from a previous use.
type ShotParams struct {
	X, Y          float64
	VX, VY        float64
	Radius        float64
	Damage        int
	Pierce        int
	Ricochet      int
	RicochetRange float64
	ExplodeRadius float64
	HomingTurn    float64
	Life          float64
	Owner         ecs.EntityID
	Target        *Entity
}

func (p ShotParams) validate() error {
	if !finite(p.X) || !finite(p.Y) {
		return errorf(ErrInvalidSpawn, "non-finite position (%v, %v)", p.X, p.Y)
	}
	if !finite(p.VX) || !finite(p.VY) {
		return errorf(ErrInvalidSpawn, "non-finite velocity (%v, %v)", p.VX, p.VY)
	}
	if p.Damage <= 0 {
		return errorf(ErrInvalidSpawn, "damage %d", p.Damage)
	}
	if !finite(p.Radius) || p.Radius < 0 || !finite(p.Life) || p.Life <= 0 {
		return errorf(ErrInvalidSpawn, "radius %v life %v", p.Radius, p.Life)
	}
	if p.Pierce < 0 || p.Ricochet < 0 {
		return errorf(ErrInvalidSpawn, "pierce %d ricochet %d", p.Pierce, p.Ricochet)
	}
	for _, v := range []float64{p.RicochetRange, p.ExplodeRadius, p.HomingTurn} {
		if !finite(v) || v < 0 {
			return errorf(ErrInvalidSpawn, "bad shot modifier %v", v)
		}
	}
	return nil
}

// PoolManager owns one entity pool per poolable kind.
type PoolManager struct {
	pools [KindCount]*Pool[Entity]
}

func NewPoolManager(projectileMax, enemyProjectileMax int) *PoolManager {
	alloc := func() *Entity { return &Entity{Shot: &ShotState{}} }
	m := &PoolManager{}
	m.pools[KindProjectile] = NewPool(projectileMax, alloc)
	m.pools[KindEnemyProjectile] = NewPool(enemyProjectileMax, alloc)
	return m
}

// Acquire returns a fully reset shot entity of the given kind, unregistered.
// Invalid parameters return ErrInvalidSpawn and no entity.
func (m *PoolManager) Acquire(kind Kind, p ShotParams) (*Entity, error) {
	if !kind.Poolable() {
		return nil, errorf(ErrInvalidSpawn, "%s is not poolable", kind)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	e := m.pools[kind].Get()
	shot := e.Shot
	if shot == nil {
		shot = &ShotState{}
	}
	hits := shot.hits
	clear(hits)
	*shot = ShotState{
		Damage:        p.Damage,
		Pierce:        p.Pierce,
		Ricochet:      p.Ricochet,
		RicochetRange: p.RicochetRange,
		ExplodeRadius: p.ExplodeRadius,
		HomingTurn:    p.HomingTurn,
		Speed:         math.Hypot(p.VX, p.VY),
		Life:          p.Life,
		Owner:         p.Owner,
		hits:          hits,
	}
	shot.SetTarget(p.Target)
	*e = Entity{
		Kind:   kind,
		X:      p.X,
		Y:      p.Y,
		VX:     p.VX,
		VY:     p.VY,
		Radius: p.Radius,
		Shot:   shot,
		pooled: true,
	}
	return e, nil
}

// Release returns a reclaimed shot to its pool. Registered, foreign or
// already released entities are ignored. Returns true if the pool kept it.
func (m *PoolManager) Release(e *Entity) bool {
	if e == nil || !e.pooled || e.inPool || e.registered || !e.Kind.Poolable() {
		return false
	}
	e.alive = false
	if e.Shot != nil {
		e.Shot.Target = nil // drop the reference now, not at next acquire
	}
	if m.pools[e.Kind].Put(e) {
		e.inPool = true
		return true
	}
	e.pooled = false
	return false
}

// Prewarm fills every pool with up to n fresh objects.
func (m *PoolManager) Prewarm(n int) {
	for _, p := range m.pools {
		if p != nil {
			p.Prewarm(n)
		}
	}
}

// Drain empties every free list, shedding transient memory.
func (m *PoolManager) Drain() int {
	n := 0
	for _, p := range m.pools {
		if p != nil {
			for _, e := range p.free {
				e.inPool = false
				e.pooled = false
			}
			n += p.Drain()
		}
	}
	return n
}

// Stats returns the counters of the pool for kind (zero value if not poolable).
func (m *PoolManager) Stats(kind Kind) PoolStats {
	if !kind.Poolable() {
		return PoolStats{}
	}
	return m.pools[kind].Stats()
}
