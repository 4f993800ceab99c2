package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// EnemyTemplate holds static data for one enemy type loaded from YAML.
type EnemyTemplate struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	HP            int     `yaml:"hp"`
	Radius        float64 `yaml:"radius"`
	Speed         float64 `yaml:"speed"`
	ContactDamage int     `yaml:"contact_damage"`
	XPValue       int     `yaml:"xp_value"`
	FireInterval  float64 `yaml:"fire_interval"` // seconds, 0 = melee only
	Weapon        string  `yaml:"weapon"`        // weapon id for enemy shots
	Weight        int     `yaml:"weight"`        // wave director pick weight, 0 = never spawned
	MinWave       int     `yaml:"min_wave"`
}

// UnmarshalYAML defaults an absent weight to 1. An explicit 0 is kept.
func (e *EnemyTemplate) UnmarshalYAML(n *yaml.Node) error {
	type plain EnemyTemplate
	p := plain{Weight: 1}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*e = EnemyTemplate(p)
	return nil
}

// PickupTemplate holds the shape of a dropped pickup.
type PickupTemplate struct {
	Radius float64 `yaml:"radius"`
	Life   float64 `yaml:"life"` // seconds, 0 = never expires
	Magnet float64 `yaml:"magnet"`
	Value  int     `yaml:"value"`
}

// DropTable describes what dying enemies leave behind.
type DropTable struct {
	XPOrb        PickupTemplate `yaml:"xp_orb"`
	Health       PickupTemplate `yaml:"health"`
	HealthChance float64        `yaml:"health_chance"` // per kill, 0..1
}

type enemyListFile struct {
	Enemies []EnemyTemplate `yaml:"enemies"`
	Drops   DropTable       `yaml:"drops"`
}

// EnemyTable holds all enemy templates indexed by ID.
type EnemyTable struct {
	templates map[string]*EnemyTemplate
	ordered   []*EnemyTemplate
	drops     DropTable
}

// LoadEnemyTable loads enemy templates from a YAML file.
func LoadEnemyTable(path string) (*EnemyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemy_list: %w", err)
	}
	return ParseEnemyTable(raw)
}

// ParseEnemyTable builds an EnemyTable from YAML bytes.
func ParseEnemyTable(raw []byte) (*EnemyTable, error) {
	var f enemyListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse enemy_list: %w", err)
	}
	t := &EnemyTable{
		templates: make(map[string]*EnemyTemplate, len(f.Enemies)),
		drops:     f.Drops,
	}
	for i := range f.Enemies {
		e := &f.Enemies[i]
		if e.ID == "" {
			return nil, fmt.Errorf("enemy_list: entry %d has no id", i)
		}
		if _, dup := t.templates[e.ID]; dup {
			return nil, fmt.Errorf("enemy_list: duplicate id %q", e.ID)
		}
		if e.HP <= 0 || e.Radius < 0 || e.Speed < 0 || e.FireInterval < 0 {
			return nil, fmt.Errorf("enemy_list: %s has invalid stats", e.ID)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("enemy_list: %s has negative weight %d", e.ID, e.Weight)
		}
		t.templates[e.ID] = e
		t.ordered = append(t.ordered, e)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool { return t.ordered[i].ID < t.ordered[j].ID })
	if f.Drops.HealthChance < 0 || f.Drops.HealthChance > 1 {
		return nil, fmt.Errorf("enemy_list: health_chance %v out of range", f.Drops.HealthChance)
	}
	if f.Drops.XPOrb.Radius < 0 || f.Drops.Health.Radius < 0 {
		return nil, fmt.Errorf("enemy_list: negative drop radius")
	}
	return t, nil
}

// Get returns an enemy template by ID, or nil if not found.
func (t *EnemyTable) Get(id string) *EnemyTemplate {
	return t.templates[id]
}

// All returns every template sorted by ID.
func (t *EnemyTable) All() []*EnemyTemplate {
	return t.ordered
}

// Count returns the number of loaded templates.
func (t *EnemyTable) Count() int {
	return len(t.templates)
}

// Drops returns the drop table.
func (t *EnemyTable) Drops() DropTable {
	return t.drops
}

// MaxRadius returns the largest collision radius among enemies and drops.
func (t *EnemyTable) MaxRadius() float64 {
	r := max(t.drops.XPOrb.Radius, t.drops.Health.Radius)
	for _, e := range t.ordered {
		r = max(r, e.Radius)
	}
	return r
}
