package sim

import (
	"errors"
	"testing"

	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCirclesOverlap(t *testing.T) {
	cases := []struct {
		name       string
		ax, ay, ar float64
		bx, by, br float64
		want       bool
	}{
		{"exact touch", 0, 0, 10, 15, 0, 5, false},
		{"just inside", 0, 0, 10, 14.999, 0, 5, true},
		{"diagonal touch", 0, 0, 2.5, 3, 4, 2.5, false},
		{"apart", 0, 0, 1, 100, 100, 1, false},
		{"concentric", 5, 5, 1, 5, 5, 3, true},
		{"zero radius same point", 7, 7, 0, 7, 7, 0, false},
		{"zero and positive radius", 0, 0, 0, 0, 0, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CirclesOverlap(tc.ax, tc.ay, tc.ar, tc.bx, tc.by, tc.br)
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if rev := CirclesOverlap(tc.bx, tc.by, tc.br, tc.ax, tc.ay, tc.ar); rev != got {
				t.Error("overlap is not symmetric")
			}
		})
	}
}

func TestZeroRadiusEntitiesNeverCollide(t *testing.T) {
	c := newTestContext(t)
	called := 0
	c.Dispatcher().Handle(world.KindPlayer, world.KindXPOrb, func(*Context, *world.Entity, *world.Entity) (bool, error) {
		called++
		return true, nil
	})
	p := world.NewPlayer(100, 100, 0, world.PlayerState{HP: 1, MaxHP: 1, Level: 1})
	o := world.NewPickup(world.KindXPOrb, 100, 100, 0, world.PickupState{Value: 1})
	if err := c.Registry.Register(p); err != nil {
		t.Fatal(err)
	}
	if err := c.Registry.Register(o); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		step(c, dt)
	}
	if called != 0 {
		t.Errorf("handler called %d times", called)
	}
}

func TestResolvePassesRegisteredOrder(t *testing.T) {
	c := newTestContext(t)
	var gotA, gotB world.Kind
	c.Dispatcher().Handle(world.KindProjectile, world.KindEnemy, func(_ *Context, a, b *world.Entity) (bool, error) {
		gotA, gotB = a.Kind, b.Kind
		return true, nil
	})
	e := mustEnemy(t, c, "dummy", 0, 0)
	s := mustShot(t, c, world.ShotParams{Radius: 4, Damage: 1, Life: 1})

	c.Dispatcher().Resolve(c, e, s)
	if gotA != world.KindProjectile || gotB != world.KindEnemy {
		t.Errorf("handler got (%s, %s)", gotA, gotB)
	}

	gotA = world.KindInvalid
	c.Registry.MarkDead(s, event.CauseExpired)
	c.Dispatcher().Resolve(c, e, s)
	if gotA != world.KindInvalid {
		t.Error("dead entity was dispatched")
	}
	c.Dispatcher().Resolve(c, e, e)
	if c.Dispatcher().Contacts() != 1 {
		t.Errorf("contacts = %d, want 1", c.Dispatcher().Contacts())
	}
}

func TestHandlerFaultIsolation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := newTestContext(t, func(d *Deps) { d.Log = zap.New(core) })
	c.Dispatcher().Handle(world.KindPlayer, world.KindHealthPickup, func(*Context, *world.Entity, *world.Entity) (bool, error) {
		panic("malformed pickup")
	})
	c.Dispatcher().Handle(world.KindProjectile, world.KindEnemy, func(*Context, *world.Entity, *world.Entity) (bool, error) {
		return true, errors.New("malformed payload")
	})
	var collisions []event.CollisionOccurred
	event.Subscribe(c.Bus, func(ev event.CollisionOccurred) { collisions = append(collisions, ev) })

	p, err := c.SpawnPlayer(500, 500)
	if err != nil {
		t.Fatal(err)
	}
	health, _ := c.SpawnHealth(500, 500, 10)
	e := mustEnemy(t, c, "dummy", 900, 900)
	mustShot(t, c, world.ShotParams{X: 900, Y: 900, Radius: 4, Damage: 1, Life: 1})
	orb, _ := c.SpawnOrb(505, 500, 1)

	c.RebuildGrid()
	c.ResolveCollisions()

	if c.Dispatcher().Faults() != 2 {
		t.Fatalf("faults = %d, want 2", c.Dispatcher().Faults())
	}
	if orb.Alive() || p.Player.XP != 1 {
		t.Error("healthy pair was not resolved after faults")
	}
	if !health.Alive() || e.Enemy.HP != 100 {
		t.Error("faulting pairs must produce no effect")
	}
	if c.Dispatcher().Contacts() != 1 {
		t.Errorf("contacts = %d, want 1", c.Dispatcher().Contacts())
	}
	c.Bus.SwapBuffers()
	c.Bus.DispatchAll()
	if len(collisions) != 1 || world.Kind(collisions[0].BKind) != world.KindXPOrb {
		t.Errorf("collision events = %+v, want only the orb pickup", collisions)
	}
	entries := logs.FilterMessage("collision handler fault").All()
	if len(entries) != 2 {
		t.Fatalf("logged %d faults", len(entries))
	}
	for _, en := range entries {
		errField, ok := en.ContextMap()["error"].(string)
		if !ok || errField == "" {
			t.Errorf("fault log without error field: %v", en.ContextMap())
		}
	}
}

func TestInvokeWrapsErrHandlerFault(t *testing.T) {
	applied, err := invoke(func(*Context, *world.Entity, *world.Entity) (bool, error) {
		panic("boom")
	}, nil, nil, nil)
	if applied || !errors.Is(err, ErrHandlerFault) {
		t.Errorf("panic not wrapped: applied=%v err=%v", applied, err)
	}
	base := errors.New("bad")
	applied, err = invoke(func(*Context, *world.Entity, *world.Entity) (bool, error) { return true, base }, nil, nil, nil)
	if applied || !errors.Is(err, ErrHandlerFault) || !errors.Is(err, base) {
		t.Errorf("error not wrapped: applied=%v err=%v", applied, err)
	}
}

func TestSameTickPairsSkipDead(t *testing.T) {
	c := newTestContext(t)
	// Two single-hit shots overlapping one fragile enemy: only one may hit.
	e := mustEnemy(t, c, "grunt", 300, 300)
	a := mustShot(t, c, world.ShotParams{X: 300, Y: 300, Radius: 4, Damage: 10, Life: 1})
	b := mustShot(t, c, world.ShotParams{X: 301, Y: 300, Radius: 4, Damage: 10, Life: 1})

	c.RebuildGrid()
	c.ResolveCollisions()

	if e.Alive() {
		t.Fatal("enemy should be dead")
	}
	if a.Alive() == b.Alive() {
		t.Errorf("exactly one shot should be spent: a=%v b=%v", a.Alive(), b.Alive())
	}
	if c.Dispatcher().Contacts() != 1 {
		t.Errorf("contacts = %d", c.Dispatcher().Contacts())
	}
}
