package main

import (
	"math/rand"
	"time"
)

const (
	PowerupSpin       = 0.05 // radians/tick
	PowerupDrift      = 0.05 // units/tick toward the camera
	PowerupRadius     = 1.0
	PowerupDespawnZ   = 15.0
	HealthPackAmount  = 30
	ShieldPackAmount  = 50
	RapidFireDuration = 5 * time.Second
)

// PowerupType selects the effect applied on pickup
type PowerupType uint8

const (
	PowerupHealth PowerupType = iota
	PowerupShield
	PowerupRapid
	powerupTypeCount
)

func (t PowerupType) String() string {
	switch t {
	case PowerupHealth:
		return "health"
	case PowerupShield:
		return "shield"
	case PowerupRapid:
		return "rapid"
	}
	return "unknown"
}

// RandomPowerupType picks a type uniformly
func RandomPowerupType(rng *rand.Rand) PowerupType {
	return PowerupType(rng.Intn(int(powerupTypeCount)))
}

// Powerup drifts toward the player and is collected on contact
type Powerup struct {
	Body
	Type PowerupType
	Spin float64
}

// NewPowerup creates a powerup of type t at pos
func NewPowerup(id Handle, pos Vec3, t PowerupType) *Powerup {
	return &Powerup{
		Body: Body{
			ID:    id,
			Pos:   pos,
			Vel:   Vec3{Z: PowerupDrift},
			Alive: true,
		},
		Type: t,
		Spin: PowerupSpin,
	}
}

func (p *Powerup) Kind() Kind { return KindPowerup }

// Update spins and drifts the powerup one tick
func (p *Powerup) Update() {
	if !p.Alive {
		return
	}
	p.Rot.Y += p.Spin
	p.move()
}

// PastCamera reports whether the powerup has drifted out of reach
func (p *Powerup) PastCamera() bool {
	return p.Pos.Z > PowerupDespawnZ
}

// Apply gives the powerup's effect to the player
func (p *Powerup) Apply(pl *Player, now time.Time) {
	switch p.Type {
	case PowerupHealth:
		pl.Health = Clamp(pl.Health+HealthPackAmount, 0, MaxResource)
	case PowerupShield:
		pl.Shield = Clamp(pl.Shield+ShieldPackAmount, 0, MaxResource)
	case PowerupRapid:
		pl.RapidFire = true
		pl.RapidFireEnd = now.Add(RapidFireDuration)
	}
}

// ToState converts to protocol state
func (p *Powerup) ToState() PowerupState {
	return PowerupState{
		ID:   p.ID,
		Pos:  roundVec(p.Pos),
		Rot:  round2(p.Rot.Y),
		Type: uint8(p.Type),
	}
}
