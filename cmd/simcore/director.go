package main

import (
	"math"
	"math/rand/v2"
	"time"

	coresys "github.com/hordesim/simcore/internal/core/system"
	"github.com/hordesim/simcore/internal/data"
	"github.com/hordesim/simcore/internal/sim"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

const (
	waveLength    = 30.0 // seconds per wave
	spawnRing     = 520.0
	baseSpawnRate = 1.5 // enemies per second in wave 0
	waveSpawnRate = 1.0 // added per wave
)

// loadout is the weapon unlocked at each player level.
var loadout = []struct {
	level  int
	weapon string
}{
	{1, "wand"},
	{3, "knife"},
	{5, "chakram"},
	{7, "fireball"},
	{9, "seeker"},
}

// director plays a headless run: it steers the player on a slow orbit,
// fires every unlocked weapon at the nearest enemy and spawns waves of
// enemies on a ring around the player. Phase 0, after event dispatch.
type director struct {
	ctx    *sim.Context
	log    *zap.Logger
	rng    *rand.Rand
	player *world.Entity

	clock    float64
	wave     int
	spawnAcc float64
	cooldown map[string]float64
	lives    int
	pool     []*data.EnemyTemplate
	poolWave int
}

func newDirector(ctx *sim.Context, seed uint64, log *zap.Logger) *director {
	return &director{
		ctx:      ctx,
		log:      log,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cooldown: make(map[string]float64, len(loadout)),
		poolWave: -1,
	}
}

func (d *director) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (d *director) Update(dt time.Duration) {
	sec := dt.Seconds()
	d.clock += sec

	if d.player == nil || !d.player.Alive() {
		d.respawn()
		if d.player == nil {
			return
		}
	}

	if w := int(d.clock / waveLength); w != d.wave {
		d.wave = w
		d.log.Info("wave started", zap.Int("wave", w), zap.Int("live", d.ctx.Registry.Live()))
	}

	orbit := d.clock * 0.35
	sim.SteerPlayer(d.player, math.Cos(orbit), math.Sin(orbit))

	d.fire(sec)
	d.spawn(sec)
}

func (d *director) respawn() {
	cfg := d.ctx.Config.Sim
	p, err := d.ctx.SpawnPlayer(cfg.ArenaWidth/2, cfg.ArenaHeight/2)
	if err != nil {
		d.log.Error("spawn player", zap.Error(err))
		return
	}
	d.player = p
	d.lives++
	clear(d.cooldown)
	if d.lives > 1 {
		d.log.Info("player respawned", zap.Int("life", d.lives))
	}
}

func (d *director) fire(sec float64) {
	target := d.nearestEnemy()
	level := d.player.Player.Level
	for _, slot := range loadout {
		if slot.level > level {
			break
		}
		d.cooldown[slot.weapon] -= sec
		if d.cooldown[slot.weapon] > 0 || target == nil {
			continue
		}
		w := d.ctx.Weapons.Get(slot.weapon)
		if w == nil {
			continue
		}
		d.cooldown[slot.weapon] = w.Cooldown
		angle := math.Atan2(target.Y-d.player.Y, target.X-d.player.X)
		if _, err := d.ctx.FireWeapon(d.player, slot.weapon, angle, target); err != nil && !sim.IsSkipped(err) {
			d.log.Warn("fire weapon", zap.String("weapon", slot.weapon), zap.Error(err))
		}
	}
}

func (d *director) nearestEnemy() *world.Entity {
	var best *world.Entity
	bestD := math.Inf(1)
	for _, e := range d.ctx.Registry.Enemies() {
		if !e.Alive() {
			continue
		}
		dx, dy := e.X-d.player.X, e.Y-d.player.Y
		if dd := dx*dx + dy*dy; dd < bestD {
			best, bestD = e, dd
		}
	}
	return best
}

func (d *director) spawn(sec float64) {
	d.spawnAcc += sec * (baseSpawnRate + waveSpawnRate*float64(d.wave))
	for d.spawnAcc >= 1 {
		d.spawnAcc--
		tmpl := d.pick()
		if tmpl == nil {
			return
		}
		a := d.rng.Float64() * 2 * math.Pi
		x := d.player.X + math.Cos(a)*spawnRing
		y := d.player.Y + math.Sin(a)*spawnRing
		if _, err := d.ctx.SpawnEnemy(tmpl.ID, x, y); err != nil {
			d.log.Debug("enemy spawn skipped", zap.String("template", tmpl.ID), zap.Error(err))
		}
	}
}

// pick draws a template by weight among those unlocked for the current wave.
func (d *director) pick() *data.EnemyTemplate {
	if d.poolWave != d.wave {
		d.pool = d.pool[:0]
		for _, t := range d.ctx.Enemies.All() {
			if t.MinWave <= d.wave && t.Weight > 0 {
				d.pool = append(d.pool, t)
			}
		}
		d.poolWave = d.wave
	}
	total := 0
	for _, t := range d.pool {
		total += t.Weight
	}
	if total == 0 {
		return nil
	}
	n := d.rng.IntN(total)
	for _, t := range d.pool {
		if n < t.Weight {
			return t
		}
		n -= t.Weight
	}
	return nil
}
