package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeaponTemplate holds the shot parameters of one weapon.
type WeaponTemplate struct {
	ID            string  `yaml:"id"`
	Damage        int     `yaml:"damage"`
	Speed         float64 `yaml:"speed"`
	Radius        float64 `yaml:"radius"`
	Life          float64 `yaml:"life"`     // seconds
	Cooldown      float64 `yaml:"cooldown"` // seconds between volleys
	Count         int     `yaml:"count"`    // shots per volley
	Spread        float64 `yaml:"spread"`   // radians between shots of a volley
	Pierce        int     `yaml:"pierce"`
	Ricochet      int     `yaml:"ricochet"`
	RicochetRange float64 `yaml:"ricochet_range"`
	ExplodeRadius float64 `yaml:"explode_radius"`
	HomingTurn    float64 `yaml:"homing_turn"` // radians/s
}

type weaponListFile struct {
	Weapons []WeaponTemplate `yaml:"weapons"`
}

// WeaponTable holds all weapon templates indexed by ID.
type WeaponTable struct {
	weapons map[string]*WeaponTemplate
}

// LoadWeaponTable loads weapon templates from a YAML file.
func LoadWeaponTable(path string) (*WeaponTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weapon_list: %w", err)
	}
	return ParseWeaponTable(raw)
}

// ParseWeaponTable builds a WeaponTable from YAML bytes.
func ParseWeaponTable(raw []byte) (*WeaponTable, error) {
	var f weaponListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse weapon_list: %w", err)
	}
	t := &WeaponTable{weapons: make(map[string]*WeaponTemplate, len(f.Weapons))}
	for i := range f.Weapons {
		w := &f.Weapons[i]
		if w.ID == "" {
			return nil, fmt.Errorf("weapon_list: entry %d has no id", i)
		}
		if _, dup := t.weapons[w.ID]; dup {
			return nil, fmt.Errorf("weapon_list: duplicate id %q", w.ID)
		}
		if w.Damage <= 0 || w.Life <= 0 || w.Speed < 0 || w.Radius < 0 {
			return nil, fmt.Errorf("weapon_list: %s has invalid stats", w.ID)
		}
		if w.Pierce < 0 || w.Ricochet < 0 || w.RicochetRange < 0 || w.ExplodeRadius < 0 || w.HomingTurn < 0 {
			return nil, fmt.Errorf("weapon_list: %s has negative modifiers", w.ID)
		}
		if w.Count <= 0 {
			w.Count = 1
		}
		t.weapons[w.ID] = w
	}
	return t, nil
}

// Get returns a weapon template by ID, or nil if not found.
func (t *WeaponTable) Get(id string) *WeaponTemplate {
	return t.weapons[id]
}

// Count returns the number of loaded weapons.
func (t *WeaponTable) Count() int {
	return len(t.weapons)
}

// MaxRadius returns the largest shot radius.
func (t *WeaponTable) MaxRadius() float64 {
	r := 0.0
	for _, w := range t.weapons {
		r = max(r, w.Radius)
	}
	return r
}
