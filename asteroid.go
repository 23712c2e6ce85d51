package main

import (
	"math"
	"math/rand"
)

const (
	AsteroidMinSize       = 0.5
	AsteroidSizeRange     = 1.5 // size is in [0.5, 2.0)
	AsteroidDrift         = 0.1 // max lateral speed is half of this
	AsteroidMinForward    = 0.1
	AsteroidSpinRange     = 0.05
	AsteroidContactMargin = 0.5 // player contact radius is size + margin
	AsteroidContactDamage = 25
	AsteroidDespawnZ      = 20.0
	AsteroidDropChance    = 0.1
	AsteroidDebrisScale   = 0.5 // explosion size relative to asteroid when shot down
	AsteroidScorePerSize  = 10
)

// Asteroid drifts toward the camera, tumbling, until shot down or passed
type Asteroid struct {
	Body
	Size   float64
	Health int
	Spin   Euler // radians/tick
}

// NewAsteroid creates an asteroid at pos with random size, drift and spin
func NewAsteroid(id Handle, pos Vec3, rng *rand.Rand) *Asteroid {
	size := AsteroidMinSize + rng.Float64()*AsteroidSizeRange
	return &Asteroid{
		Body: Body{
			ID:  id,
			Pos: pos,
			Vel: Vec3{
				X: (rng.Float64() - 0.5) * AsteroidDrift,
				Y: (rng.Float64() - 0.5) * AsteroidDrift,
				Z: AsteroidMinForward + rng.Float64()*AsteroidDrift,
			},
			Alive: true,
		},
		Size:   size,
		Health: int(math.Ceil(size * 2)),
		Spin: Euler{
			X: (rng.Float64() - 0.5) * AsteroidSpinRange,
			Y: (rng.Float64() - 0.5) * AsteroidSpinRange,
			Z: (rng.Float64() - 0.5) * AsteroidSpinRange,
		},
	}
}

func (a *Asteroid) Kind() Kind { return KindAsteroid }

// Update moves and spins the asteroid one tick
func (a *Asteroid) Update() {
	if !a.Alive {
		return
	}
	a.move()
	a.Rot = a.Rot.Add(a.Spin)
}

// Hit takes one bullet and reports whether the asteroid is destroyed
func (a *Asteroid) Hit() bool {
	if a.Health > 0 {
		a.Health--
	}
	return a.Health <= 0
}

// ContactRadius is the distance at which the asteroid strikes the player
func (a *Asteroid) ContactRadius() float64 {
	return a.Size + AsteroidContactMargin
}

// Score is awarded when the asteroid is shot down
func (a *Asteroid) Score() int {
	return int(math.Ceil(a.Size * AsteroidScorePerSize))
}

// PastCamera reports whether the asteroid can no longer be scored
func (a *Asteroid) PastCamera() bool {
	return a.Pos.Z > AsteroidDespawnZ
}

// ToState converts to protocol state
func (a *Asteroid) ToState() AsteroidState {
	return AsteroidState{
		ID:     a.ID,
		Pos:    roundVec(a.Pos),
		Rot:    roundEuler(a.Rot),
		Size:   round2(a.Size),
		Health: a.Health,
	}
}
