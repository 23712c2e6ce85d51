package main

import "math"

const (
	BarrelRollStep     = 0.3    // radians/tick
	BarrelRollCooldown = 2000.0 // ms
)

// BarrelRoll is the player's invulnerability maneuver. While active the
// ship spins a full turn about its forward axis and ignores all damage.
type BarrelRoll struct {
	Active   bool
	Angle    float64
	Cooldown float64 // ms until the next roll may start
}

// Trigger starts a roll unless one is still cooling down
func (r *BarrelRoll) Trigger() bool {
	if r.Cooldown > 0 {
		return false
	}
	r.Active = true
	r.Angle = 0
	r.Cooldown = BarrelRollCooldown
	return true
}

// Advance spins the roll one tick, overriding the ship's roll angle
func (r *BarrelRoll) Advance(rot *Euler) {
	if !r.Active {
		return
	}
	r.Angle += BarrelRollStep
	rot.Z = r.Angle
	if r.Angle >= 2*math.Pi {
		r.Active = false
		rot.Z = 0
	}
}

// Cool counts the cooldown down by delta
func (r *BarrelRoll) Cool(deltaMs float64) {
	if r.Cooldown > 0 {
		r.Cooldown -= deltaMs
	}
}
