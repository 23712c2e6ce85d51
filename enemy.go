package main

import (
	"math/rand"
	"time"
)

const (
	EnemyMaxHealth      = 3
	EnemyForwardSpeed   = 0.08 // units/tick toward the camera
	EnemyInitialForward = 0.15
	EnemyChaseGain      = 0.05 * 0.1
	EnemyStrafeSpeed    = 0.1
	EnemyStrafePeriod   = 1000.0 // ms of strafe time between direction flips
	EnemyShootMin       = 1500 * time.Millisecond
	EnemyShootJitter    = 1000 * time.Millisecond
	EnemyFireMinZ       = -40.0 // too far back to shoot below this depth
	EnemyContactRadius  = 1.5
	EnemyHitRadius      = 1.0
	EnemyContactDamage  = 30
	EnemyKillScore      = 50
	EnemyDropChance     = 0.2
	EnemyExplosionSize  = 1.5
	EnemyDespawnZ       = 20.0
)

// Behavior is fixed at spawn
type Behavior uint8

const (
	BehaviorChase Behavior = iota
	BehaviorStrafe
)

func (b Behavior) String() string {
	if b == BehaviorStrafe {
		return "strafe"
	}
	return "chase"
}

// Enemy is an AI ship that closes on the player and shoots at it
type Enemy struct {
	Body
	Health        int
	Behavior      Behavior
	StrafeDir     float64 // +1 or -1
	StrafeTime    float64 // ms since last flip
	LastShot      time.Time
	ShootInterval time.Duration
}

// NewEnemy creates an enemy at pos with a random behavior and fire rate
func NewEnemy(id Handle, pos Vec3, rng *rand.Rand) *Enemy {
	e := &Enemy{
		Body: Body{
			ID:    id,
			Pos:   pos,
			Vel:   Vec3{Z: EnemyInitialForward},
			Alive: true,
		},
		Health:        EnemyMaxHealth,
		ShootInterval: EnemyShootMin + time.Duration(rng.Float64()*float64(EnemyShootJitter)),
		StrafeDir:     1,
	}
	if rng.Float64() >= 0.5 {
		e.Behavior = BehaviorStrafe
	}
	if rng.Float64() >= 0.5 {
		e.StrafeDir = -1
	}
	return e
}

func (e *Enemy) Kind() Kind { return KindEnemy }

// Update steers the enemy one tick and turns it to face target
func (e *Enemy) Update(deltaMs float64, target Vec3) {
	if !e.Alive {
		return
	}
	switch e.Behavior {
	case BehaviorChase:
		pull := target.Sub(e.Pos).Normalize().Scale(EnemyChaseGain)
		e.Vel.X += pull.X
		e.Vel.Y += pull.Y
	case BehaviorStrafe:
		// a single flip per tick, however long the tick
		e.StrafeTime += deltaMs
		if e.StrafeTime > EnemyStrafePeriod {
			e.StrafeDir = -e.StrafeDir
			e.StrafeTime = 0
		}
		e.Vel.X = e.StrafeDir * EnemyStrafeSpeed
	}
	e.Vel.Z = EnemyForwardSpeed
	e.move()
	e.Rot = LookAt(e.Pos, target)
}

// TryFire reports whether the enemy shoots at now and records the shot
func (e *Enemy) TryFire(now time.Time) bool {
	if !e.Alive || e.Pos.Z <= EnemyFireMinZ {
		return false
	}
	if now.Sub(e.LastShot) <= e.ShootInterval {
		return false
	}
	e.LastShot = now
	return true
}

// Hit takes one bullet and reports whether the enemy is destroyed
func (e *Enemy) Hit() bool {
	if e.Health > 0 {
		e.Health--
	}
	return e.Health <= 0
}

// PastCamera reports whether the enemy has flown behind the player
func (e *Enemy) PastCamera() bool {
	return e.Pos.Z > EnemyDespawnZ
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:       e.ID,
		Pos:      roundVec(e.Pos),
		Rot:      roundEuler(e.Rot),
		Health:   e.Health,
		Behavior: uint8(e.Behavior),
	}
}
