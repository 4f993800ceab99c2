package world

import (
	"math"

	"github.com/hordesim/simcore/internal/core/ecs"
)

// Kind is the closed set of simulation object types. The payload pointer
// matching the kind is the only one set on an Entity.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPlayer
	KindEnemy
	KindProjectile
	KindEnemyProjectile
	KindXPOrb
	KindHealthPickup

	KindCount // number of kinds, including KindInvalid
)

var kindNames = [KindCount]string{
	KindInvalid:         "invalid",
	KindPlayer:          "player",
	KindEnemy:           "enemy",
	KindProjectile:      "projectile",
	KindEnemyProjectile: "enemyProjectile",
	KindXPOrb:           "xpOrb",
	KindHealthPickup:    "healthPickup",
}

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k names a real entity kind.
func (k Kind) Valid() bool { return k > KindInvalid && k < KindCount }

// Poolable reports whether entities of this kind are recycled through the pool manager.
func (k Kind) Poolable() bool { return k == KindProjectile || k == KindEnemyProjectile }

// IsShot reports whether the kind carries a ShotState payload.
func (k Kind) IsShot() bool { return k.Poolable() }

// IsPickup reports whether the kind carries a PickupState payload.
func (k Kind) IsPickup() bool { return k == KindXPOrb || k == KindHealthPickup }

// Entity is the unit of simulation. Game logic mutates fields in place;
// liveness only changes through Registry.MarkDead.
type Entity struct {
	ID     ecs.EntityID
	Kind   Kind
	X, Y   float64
	VX, VY float64
	Radius float64

	Player *PlayerState
	Enemy  *EnemyState
	Shot   *ShotState
	Pickup *PickupState

	alive      bool
	registered bool
	pooled     bool // drawn from a pool; returned on reclaim
	inPool     bool // sitting in a free list
	seq        uint64
	cause      uint8
}

// Alive reports the liveness flag. Dead entities are never read by the
// collision pipeline; they wait for the next cleanup pass.
func (e *Entity) Alive() bool { return e.alive }

// Pooled reports whether the entity came from a pool.
func (e *Entity) Pooled() bool { return e.pooled }

// PlayerState is the payload of KindPlayer.
type PlayerState struct {
	HP     int
	MaxHP  int
	XP     int
	Level  int
	Speed  float64
	Invuln float64 // seconds of remaining damage immunity
}

// EnemyState is the payload of KindEnemy.
type EnemyState struct {
	Template      string
	HP            int
	MaxHP         int
	Speed         float64
	ContactDamage int
	XPValue       int
	FireInterval  float64 // 0 = melee only
	FireCD        float64
	ShotWeapon    string
}

// ShotState is the payload of KindProjectile and KindEnemyProjectile.
type ShotState struct {
	Damage        int
	Pierce        int // extra enemies this shot may pass through
	Ricochet      int // retargets left after pierce is spent
	RicochetRange float64
	ExplodeRadius float64 // > 0 makes the shot explosive
	HomingTurn    float64 // radians/s, 0 = straight
	Speed         float64
	Life          float64 // seconds until expiry
	Owner         ecs.EntityID
	Target        *Entity
	TargetID      ecs.EntityID
	HitCount      int

	hits map[ecs.EntityID]struct{}
}

// HasHit reports whether the shot already struck the entity with the given id.
func (s *ShotState) HasHit(id ecs.EntityID) bool {
	_, ok := s.hits[id]
	return ok
}

// RecordHit adds id to the shot's hit registry.
func (s *ShotState) RecordHit(id ecs.EntityID) {
	if s.hits == nil {
		s.hits = make(map[ecs.EntityID]struct{}, 4)
	}
	s.hits[id] = struct{}{}
	s.HitCount++
}

// ValidTarget returns the homing/ricochet target if it still refers to the
// same live entity it was locked on. Pooled or reclaimed targets fail the id check.
func (s *ShotState) ValidTarget() *Entity {
	t := s.Target
	if t == nil || !t.alive || t.ID != s.TargetID {
		return nil
	}
	return t
}

// SetTarget locks the shot onto t (nil clears).
func (s *ShotState) SetTarget(t *Entity) {
	if t == nil {
		s.Target, s.TargetID = nil, 0
		return
	}
	s.Target, s.TargetID = t, t.ID
}

// PickupState is the payload of KindXPOrb and KindHealthPickup.
type PickupState struct {
	Value  int
	Life   float64 // 0 = never expires
	Magnet float64 // radius within which the pickup drifts toward a player
}

// NewPlayer builds an unregistered player entity.
func NewPlayer(x, y, radius float64, st PlayerState) *Entity {
	return &Entity{Kind: KindPlayer, X: x, Y: y, Radius: radius, Player: &st}
}

// NewEnemy builds an unregistered enemy entity.
func NewEnemy(x, y, radius float64, st EnemyState) *Entity {
	return &Entity{Kind: KindEnemy, X: x, Y: y, Radius: radius, Enemy: &st}
}

// NewPickup builds an unregistered pickup entity of kind KindXPOrb or KindHealthPickup.
func NewPickup(kind Kind, x, y, radius float64, st PickupState) *Entity {
	return &Entity{Kind: kind, X: x, Y: y, Radius: radius, Pickup: &st}
}

// validate checks the invariants Register enforces.
func (e *Entity) validate() error {
	if e == nil {
		return errorf(ErrInvalidEntity, "nil entity")
	}
	if !e.Kind.Valid() {
		return errorf(ErrInvalidEntity, "unrecognized kind %d", e.Kind)
	}
	if !finite(e.X) || !finite(e.Y) {
		return errorf(ErrInvalidEntity, "%s at non-finite position (%v, %v)", e.Kind, e.X, e.Y)
	}
	if !finite(e.Radius) || e.Radius < 0 {
		return errorf(ErrInvalidEntity, "%s with radius %v", e.Kind, e.Radius)
	}
	if !finite(e.VX) || !finite(e.VY) {
		return errorf(ErrInvalidEntity, "%s with non-finite velocity", e.Kind)
	}
	ok := false
	switch {
	case e.Kind == KindPlayer:
		ok = e.Player != nil && e.Enemy == nil && e.Shot == nil && e.Pickup == nil
	case e.Kind == KindEnemy:
		ok = e.Enemy != nil && e.Player == nil && e.Shot == nil && e.Pickup == nil
	case e.Kind.IsShot():
		ok = e.Shot != nil && e.Player == nil && e.Enemy == nil && e.Pickup == nil
	case e.Kind.IsPickup():
		ok = e.Pickup != nil && e.Player == nil && e.Enemy == nil && e.Shot == nil
	}
	if !ok {
		return errorf(ErrInvalidEntity, "%s payload does not match kind", e.Kind)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
