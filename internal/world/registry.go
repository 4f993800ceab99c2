package world

import (
	"github.com/hordesim/simcore/internal/core/ecs"
	"github.com/hordesim/simcore/internal/core/event"
)

// Releaser takes back pooled entities reclaimed by cleanup.
type Releaser interface {
	Release(e *Entity) bool
}

// Counts is a read-only snapshot of live entities per kind.
type Counts struct {
	Total  int
	ByKind [KindCount]int
}

// Of returns the live count for one kind.
func (c Counts) Of(k Kind) int {
	if k >= KindCount {
		return 0
	}
	return c.ByKind[k]
}

// Registry owns the canonical list of live entities plus one view per kind.
// All lists are mutated only from the tick goroutine; no locks.
//
// Dead entities stay in every list until Cleanup compacts them away.
// While frozen (during iteration) compaction is deferred until the last Thaw.
type Registry struct {
	ids      *ecs.IDPool
	all      []*Entity
	views    [KindCount][]*Entity
	byID     map[ecs.EntityID]*Entity
	live     int
	liveKind [KindCount]int
	cap      int
	seq      uint64
	frozen   int
	pending  bool
	culled   uint64
	releaser Releaser
	onRemove []func(*Entity)
}

// NewRegistry creates a registry with a live-entity cap (<= 0 disables the cap).
func NewRegistry(cap int, releaser Releaser) *Registry {
	r := &Registry{
		ids:      ecs.NewIDPool(),
		all:      make([]*Entity, 0, 1024),
		byID:     make(map[ecs.EntityID]*Entity, 1024),
		cap:      cap,
		releaser: releaser,
	}
	for k := range r.views {
		r.views[k] = make([]*Entity, 0, 64)
	}
	return r
}

// OnRemove registers a hook called for every entity reclaimed by cleanup,
// before a pooled entity is handed back to its pool.
func (r *Registry) OnRemove(fn func(*Entity)) {
	r.onRemove = append(r.onRemove, fn)
}

// Register validates e, assigns an id if absent and appends it to the master
// list and its kind view. Exceeding the cap culls the oldest non-player entities.
func (r *Registry) Register(e *Entity) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.registered || e.inPool {
		return errorf(ErrInvalidEntity, "%s %d is already registered or pooled", e.Kind, e.ID)
	}
	if e.ID.IsZero() {
		e.ID = r.ids.Create()
	} else if !r.ids.Alive(e.ID) || r.byID[e.ID] != nil {
		return errorf(ErrInvalidEntity, "%s carries foreign or duplicate id %d", e.Kind, e.ID)
	}

	r.seq++
	e.seq = r.seq
	e.alive = true
	e.registered = true
	e.cause = 0
	r.all = append(r.all, e)
	r.views[e.Kind] = append(r.views[e.Kind], e)
	r.byID[e.ID] = e
	r.live++
	r.liveKind[e.Kind]++

	r.enforceCap()
	return nil
}

// ReserveID hands out an id ahead of registration; Register accepts it once.
func (r *Registry) ReserveID() ecs.EntityID {
	return r.ids.Create()
}

// MarkDead clears the liveness flag. Idempotent; lists are untouched until Cleanup.
func (r *Registry) MarkDead(e *Entity, cause event.Cause) {
	if e == nil || !e.alive {
		return
	}
	e.alive = false
	e.cause = uint8(cause)
	if e.registered {
		r.live--
		r.liveKind[e.Kind]--
	}
}

// Cause returns why a dead entity was marked dead.
func (e *Entity) Cause() event.Cause { return event.Cause(e.cause) }

// Cleanup compacts every list in place, reclaims ids and returns pooled
// entities to the releaser. Returns the number of entities reclaimed.
func (r *Registry) Cleanup() int {
	if r.frozen > 0 {
		r.pending = true
		return 0
	}
	r.pending = false

	removed := 0
	n := 0
	for _, e := range r.all {
		if e.alive {
			r.all[n] = e
			n++
			continue
		}
		removed++
		for _, fn := range r.onRemove {
			fn(e)
		}
		delete(r.byID, e.ID)
		r.ids.Destroy(e.ID)
		e.registered = false
		if e.pooled && r.releaser != nil {
			r.releaser.Release(e)
		}
	}
	clear(r.all[n:])
	r.all = r.all[:n]

	for k := range r.views {
		r.views[k] = compactLive(r.views[k])
	}
	return removed
}

func compactLive(list []*Entity) []*Entity {
	n := 0
	for _, e := range list {
		if e.alive && e.registered {
			list[n] = e
			n++
		}
	}
	clear(list[n:])
	return list[:n]
}

// Freeze defers compaction until the matching Thaw. Nestable.
func (r *Registry) Freeze() { r.frozen++ }

// Thaw ends a Freeze and runs any cleanup requested meanwhile.
func (r *Registry) Thaw() {
	if r.frozen == 0 {
		return
	}
	r.frozen--
	if r.frozen == 0 && r.pending {
		r.Cleanup()
	}
}

// Each calls fn for every live entity present when iteration started.
// Entities registered by fn are visited on the next call.
func (r *Registry) Each(fn func(*Entity)) {
	r.Freeze()
	defer r.Thaw()
	n := len(r.all)
	for i := 0; i < n; i++ {
		if e := r.all[i]; e.alive {
			fn(e)
		}
	}
}

// SetCap changes the live-entity cap and applies it immediately.
func (r *Registry) SetCap(cap int) {
	r.cap = cap
	r.enforceCap()
}

func (r *Registry) Cap() int { return r.cap }

// enforceCap marks the oldest non-player entities dead until the live count
// fits, then reclaims them synchronously (or as soon as the registry thaws).
func (r *Registry) enforceCap() {
	if r.cap <= 0 || r.live <= r.cap {
		return
	}
	for _, e := range r.all {
		if r.live <= r.cap {
			break
		}
		if e.alive && e.Kind != KindPlayer {
			r.MarkDead(e, event.CauseCulled)
			r.culled++
		}
	}
	r.Cleanup()
}

// All returns the master list. It may contain dead entities awaiting cleanup.
func (r *Registry) All() []*Entity { return r.all }

// View returns the per-kind list. It may contain dead entities awaiting cleanup.
func (r *Registry) View(k Kind) []*Entity {
	if k >= KindCount {
		return nil
	}
	return r.views[k]
}

func (r *Registry) Players() []*Entity          { return r.views[KindPlayer] }
func (r *Registry) Enemies() []*Entity          { return r.views[KindEnemy] }
func (r *Registry) Projectiles() []*Entity      { return r.views[KindProjectile] }
func (r *Registry) EnemyProjectiles() []*Entity { return r.views[KindEnemyProjectile] }
func (r *Registry) XPOrbs() []*Entity           { return r.views[KindXPOrb] }
func (r *Registry) HealthPickups() []*Entity    { return r.views[KindHealthPickup] }

// Lookup returns the registered entity with the given id, dead or alive.
func (r *Registry) Lookup(id ecs.EntityID) *Entity { return r.byID[id] }

// Live returns the number of live entities.
func (r *Registry) Live() int { return r.live }

// Culled returns how many entities back-pressure has removed so far.
func (r *Registry) Culled() uint64 { return r.culled }

// Counts returns live counts per kind.
func (r *Registry) Counts() Counts {
	return Counts{Total: r.live, ByKind: r.liveKind}
}
