package sim

// Rules are the tunable gameplay formulas. The Lua engine in
// internal/scripting satisfies this interface; DefaultRules is the built-in set.
type Rules interface {
	// HitDamage is the damage a shot deals to its hitIndex-th target (0 = first).
	// splash is set for explosion area damage.
	HitDamage(base, hitIndex int, splash bool) int
	// OrbValue is the experience carried by the orb an enemy drops.
	OrbValue(xp, playerLevel int) int
	// XPToLevel is the experience needed to go from level to level+1.
	XPToLevel(level int) int
}

// DefaultRules: full damage on direct hits, half on splash, linear level curve.
type DefaultRules struct{}

func (DefaultRules) HitDamage(base, _ int, splash bool) int {
	if splash {
		return max(1, base/2)
	}
	return base
}

func (DefaultRules) OrbValue(xp, _ int) int { return max(1, xp) }

func (DefaultRules) XPToLevel(level int) int {
	return 5 + 10*(max(level, 1)-1)
}
