package world

import (
	"math"
	"math/rand"
	"testing"
)

type pairKey struct{ a, b *Entity }

func orderedPair(a, b *Entity) pairKey {
	if a.seq > b.seq {
		a, b = b, a
	}
	return pairKey{a, b}
}

func registerAt(r *Registry, x, y float64) *Entity {
	e := NewEnemy(x, y, 1, EnemyState{HP: 1})
	if err := r.Register(e); err != nil {
		panic(err)
	}
	return e
}

func TestGridPairsVisitedExactlyOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRegistry(0, nil)
	for i := 0; i < 300; i++ {
		registerAt(r, rng.Float64()*400-200, rng.Float64()*400-200)
	}
	g := NewGrid(32)
	g.Rebuild(r.All())

	seen := make(map[pairKey]int)
	g.ForEachCandidatePair(func(a, b *Entity) {
		if a == b {
			t.Fatal("entity paired with itself")
		}
		seen[orderedPair(a, b)]++
	})
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("pair %d-%d visited %d times", k.a.ID, k.b.ID, n)
		}
	}

	// Every pair in the same or an adjacent cell must be present.
	all := r.All()
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			ax, ay := g.CellOf(all[i].X, all[i].Y)
			bx, by := g.CellOf(all[j].X, all[j].Y)
			dx, dy := ax-bx, ay-by
			if dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 {
				if seen[orderedPair(all[i], all[j])] != 1 {
					t.Fatalf("adjacent pair missing: cells (%d,%d) (%d,%d)", ax, ay, bx, by)
				}
			}
		}
	}
}

func TestGridNegativeCoordinatesFloor(t *testing.T) {
	g := NewGrid(10)
	if cx, cy := g.CellOf(-0.5, 9.99); cx != -1 || cy != 0 {
		t.Errorf("CellOf(-0.5, 9.99) = (%d,%d), want (-1,0)", cx, cy)
	}
	r := NewRegistry(0, nil)
	a := registerAt(r, -1, -1)
	b := registerAt(r, 1, 1)
	g.Rebuild(r.All())
	n := 0
	g.ForEachCandidatePair(func(x, y *Entity) {
		if orderedPair(x, y) == orderedPair(a, b) {
			n++
		}
	})
	if n != 1 {
		t.Errorf("diagonal neighbors across origin paired %d times", n)
	}
}

func TestGridSkipsDeadAndNonFinite(t *testing.T) {
	r := NewRegistry(0, nil)
	a := registerAt(r, 0, 0)
	b := registerAt(r, 1, 0)
	registerAt(r, 2, 0)
	r.MarkDead(b, 0)
	a.X = math.NaN() // moved into an invalid state after registration

	g := NewGrid(16)
	g.Rebuild(r.All())
	if st := g.Stats(); st.Entries != 1 {
		t.Errorf("entries = %d, want 1", st.Entries)
	}
	pairs := 0
	g.ForEachCandidatePair(func(*Entity, *Entity) { pairs++ })
	if pairs != 0 {
		t.Errorf("got %d pairs, want 0", pairs)
	}
}

func TestGridRebuildForgetsOldPositions(t *testing.T) {
	r := NewRegistry(0, nil)
	a := registerAt(r, 0, 0)
	b := registerAt(r, 1, 0)
	g := NewGrid(16)
	g.Rebuild(r.All())

	b.X = 1000
	g.Rebuild(r.All())
	g.ForEachCandidatePair(func(x, y *Entity) {
		t.Errorf("stale pair %d-%d after move", x.ID, y.ID)
	})
	if got := g.Query(0, 0, 5, nil); len(got) != 1 || got[0] != a {
		t.Errorf("query near origin = %v", got)
	}
}

func TestGridQuery(t *testing.T) {
	r := NewRegistry(0, nil)
	near := registerAt(r, 100, 100)
	registerAt(r, 3000, 3000)
	g := NewGrid(80)
	g.Rebuild(r.All())

	found := g.Query(110, 90, 50, nil)
	if len(found) != 1 || found[0] != near {
		t.Errorf("query = %v", found)
	}
	// Huge radius scans occupancy instead of cells.
	if got := g.Query(0, 0, 1e9, nil); len(got) != 2 {
		t.Errorf("wide query found %d", len(got))
	}
	if got := g.Query(math.NaN(), 0, 10, nil); len(got) != 0 {
		t.Errorf("NaN query found %d", len(got))
	}
}

func TestGridHugeCoordinatesClamp(t *testing.T) {
	g := NewGrid(1)
	cx, cy := g.CellOf(1e300, -1e300)
	if cx != maxCellCoord || cy != -maxCellCoord {
		t.Errorf("clamp failed: (%d,%d)", cx, cy)
	}
}
