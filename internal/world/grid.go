package world

import "math"

// Grid is a spatial hash rebuilt from scratch every tick. Cells are keyed by
// packed integer coordinates; bucket slices keep their capacity across rebuilds.
// Holds non-owning references into the Registry. Tick goroutine only, no locks.
//
// Cell size must be at least the largest radius sum of any colliding pair,
// otherwise contacts spanning more than one cell boundary are missed.
type Grid struct {
	cellSize float64
	inv      float64
	index    map[uint64]int // packed cell key → cells slot
	cells    []gridCell
	occupied []int // slots touched this rebuild, in insertion order
	entries  int
}

type gridCell struct {
	cx, cy int32
	items  []*Entity
}

// halfNeighborhood visits each adjacent cell pair exactly once:
// a cell pairs with its right, lower, lower-right and lower-left neighbors only.
var halfNeighborhood = [4][2]int32{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

// Coordinates beyond this are clamped so packing into 32 bits cannot wrap.
const maxCellCoord = 1 << 30

func NewGrid(cellSize float64) *Grid {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = 64
	}
	return &Grid{
		cellSize: cellSize,
		inv:      1 / cellSize,
		index:    make(map[uint64]int, 256),
		cells:    make([]gridCell, 0, 256),
		occupied: make([]int, 0, 256),
	}
}

func (g *Grid) CellSize() float64 { return g.cellSize }

func packKey(cx, cy int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}

func (g *Grid) cellCoord(v float64) int32 {
	c := math.Floor(v * g.inv)
	if c > maxCellCoord {
		return maxCellCoord
	}
	if c < -maxCellCoord {
		return -maxCellCoord
	}
	return int32(c)
}

// CellOf returns the cell coordinate of a world position.
func (g *Grid) CellOf(x, y float64) (int32, int32) {
	return g.cellCoord(x), g.cellCoord(y)
}

// Rebuild clears every bucket and inserts each live entity with finite coordinates.
func (g *Grid) Rebuild(entities []*Entity) {
	prev := max(len(g.occupied), 1)
	for _, slot := range g.occupied {
		c := &g.cells[slot]
		clear(c.items)
		c.items = c.items[:0]
	}
	g.occupied = g.occupied[:0]
	g.entries = 0

	// Drop stale buckets when the map has grown far beyond current occupancy.
	if len(g.cells) > 1024 && len(g.cells) > 8*prev {
		clear(g.index)
		g.cells = g.cells[:0]
	}

	for _, e := range entities {
		if !e.alive || !finite(e.X) || !finite(e.Y) {
			continue
		}
		g.insert(e)
	}
}

func (g *Grid) insert(e *Entity) {
	cx, cy := g.cellCoord(e.X), g.cellCoord(e.Y)
	key := packKey(cx, cy)
	slot, ok := g.index[key]
	if !ok {
		slot = len(g.cells)
		g.cells = append(g.cells, gridCell{cx: cx, cy: cy})
		g.index[key] = slot
	}
	c := &g.cells[slot]
	if len(c.items) == 0 {
		g.occupied = append(g.occupied, slot)
	}
	c.items = append(c.items, e)
	g.entries++
}

// ForEachCandidatePair calls fn once for every unordered pair of entities that
// share a cell or sit in adjacent cells.
func (g *Grid) ForEachCandidatePair(fn func(a, b *Entity)) {
	for _, slot := range g.occupied {
		c := &g.cells[slot]
		items := c.items
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				fn(items[i], items[j])
			}
		}
		for _, off := range halfNeighborhood {
			nslot, ok := g.index[packKey(c.cx+off[0], c.cy+off[1])]
			if !ok {
				continue
			}
			other := g.cells[nslot].items
			if len(other) == 0 {
				continue
			}
			for _, a := range items {
				for _, b := range other {
					fn(a, b)
				}
			}
		}
	}
}

// Query appends every entity in cells overlapping the square around (x, y)
// to buf. Callers do the exact distance test.
func (g *Grid) Query(x, y, radius float64, buf []*Entity) []*Entity {
	if !finite(x) || !finite(y) || !finite(radius) || radius < 0 {
		return buf
	}
	minX, maxX := g.cellCoord(x-radius), g.cellCoord(x+radius)
	minY, maxY := g.cellCoord(y-radius), g.cellCoord(y+radius)
	span := (int64(maxX) - int64(minX) + 1) * (int64(maxY) - int64(minY) + 1)
	if span > int64(len(g.occupied)) {
		// Fewer occupied cells than cells in range: scan occupancy instead.
		for _, slot := range g.occupied {
			c := &g.cells[slot]
			if c.cx >= minX && c.cx <= maxX && c.cy >= minY && c.cy <= maxY {
				buf = append(buf, c.items...)
			}
		}
		return buf
	}
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			slot, ok := g.index[packKey(cx, cy)]
			if !ok {
				continue
			}
			buf = append(buf, g.cells[slot].items...)
		}
	}
	return buf
}

// GridStats are debug counters for the last rebuild.
type GridStats struct {
	Cells     int `msgpack:"cells"`
	Entries   int `msgpack:"entries"`
	MaxBucket int `msgpack:"max_bucket"`
	Buckets   int `msgpack:"buckets"` // allocated buckets, occupied or not
}

func (g *Grid) Stats() GridStats {
	s := GridStats{Cells: len(g.occupied), Entries: g.entries, Buckets: len(g.cells)}
	for _, slot := range g.occupied {
		s.MaxBucket = max(s.MaxBucket, len(g.cells[slot].items))
	}
	return s
}
