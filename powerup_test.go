package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPowerupUpdate(t *testing.T) {
	p := NewPowerup(1, V3(0, 0, -10), PowerupShield)
	p.Update()
	assert.InDelta(t, -10+PowerupDrift, p.Pos.Z, eps)
	assert.InDelta(t, PowerupSpin, p.Rot.Y, eps)
	assert.Equal(t, KindPowerup, p.Kind())
}

func TestPowerupPastCamera(t *testing.T) {
	p := NewPowerup(1, V3(0, 0, PowerupDespawnZ), PowerupHealth)
	assert.False(t, p.PastCamera())
	p.Pos.Z += 0.01
	assert.True(t, p.PastCamera())
}

func TestPowerupApply(t *testing.T) {
	clock := newFakeClock()

	pl := NewPlayer()
	pl.Health = 90
	NewPowerup(1, Vec3{}, PowerupHealth).Apply(pl, clock.Now())
	assert.Equal(t, MaxResource, pl.Health, "health is capped")

	pl.Health = 40
	NewPowerup(2, Vec3{}, PowerupHealth).Apply(pl, clock.Now())
	assert.Equal(t, 70.0, pl.Health)

	pl.Shield = 20
	NewPowerup(3, Vec3{}, PowerupShield).Apply(pl, clock.Now())
	assert.Equal(t, 70.0, pl.Shield)

	NewPowerup(4, Vec3{}, PowerupRapid).Apply(pl, clock.Now())
	assert.True(t, pl.RapidFire)
	assert.Equal(t, clock.Now().Add(RapidFireDuration), pl.RapidFireEnd)
}

func TestRandomPowerupTypeCoversAll(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	seen := map[PowerupType]bool{}
	for range 100 {
		seen[RandomPowerupType(rng)] = true
	}
	assert.Len(t, seen, int(powerupTypeCount))
}
