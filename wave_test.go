package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveComposition(t *testing.T) {
	tests := []struct {
		wave      int
		asteroids int
		enemies   int
	}{
		{1, 13, 2},
		{2, 16, 4},
		{5, 25, 10},
		{8, 34, 15},
		{20, 70, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.asteroids, AsteroidCount(tt.wave), "wave %d asteroids", tt.wave)
		assert.Equal(t, tt.enemies, EnemyCount(tt.wave), "wave %d enemies", tt.wave)
	}
}

func TestWaveStateTick(t *testing.T) {
	w := WaveState{Number: 1}

	assert.False(t, w.Tick(1500, true))
	assert.False(t, w.Tick(100, false), "any survivor resets the timer")
	assert.Zero(t, w.ClearTimer)

	assert.False(t, w.Tick(WaveClearDelay, true), "the delay must be exceeded")
	assert.True(t, w.Tick(1, true))
	assert.Equal(t, 2, w.Number)
	assert.Zero(t, w.ClearTimer)
}

func TestWaveStateAdvancesOncePerTick(t *testing.T) {
	w := WaveState{Number: 3}
	assert.True(t, w.Tick(WaveClearDelay*10, true))
	assert.Equal(t, 4, w.Number)
}

func TestGameAdvancesWave(t *testing.T) {
	type cleared struct {
		wave     int
		flawless bool
	}
	var got []cleared
	g, _, _ := newTestGame(1, GameHooks{
		OnWaveCleared: func(wave int, flawless bool) { got = append(got, cleared{wave, flawless}) },
	})
	startEmpty(g)

	g.Step(1000)
	g.Step(1000)
	assert.Equal(t, 1, g.wave.Number)
	assert.Empty(t, got)

	g.Step(1)
	assert.Equal(t, 2, g.wave.Number)
	assert.Len(t, g.asteroids.Items(), AsteroidCount(2))
	assert.Len(t, g.enemies.Items(), EnemyCount(2))
	require.Len(t, got, 1)
	assert.Equal(t, cleared{1, true}, got[0])
	assert.Equal(t, 1, g.Stats().FlawlessWaves)
	assert.Equal(t, 2, g.Stats().Wave)

	ev := eventsOf(g.events, EventWaveCleared)
	require.Len(t, ev, 1)
	assert.Equal(t, 1, ev[0].Wave)
}

func TestDamagedWaveIsNotFlawless(t *testing.T) {
	var flawless []bool
	g, _, _ := newTestGame(1, GameHooks{
		OnWaveCleared: func(_ int, f bool) { flawless = append(flawless, f) },
	})
	startEmpty(g)
	g.applyDamage(5)

	g.Step(WaveClearDelay + 1)
	require.Len(t, flawless, 1)
	assert.False(t, flawless[0])
	assert.Zero(t, g.Stats().FlawlessWaves)
}

func TestWaveWaitsForSurvivors(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	placeAsteroid(g, V3(20, 10, -90), 1, 2)

	for range 5 {
		g.Step(1000)
	}
	assert.Equal(t, 1, g.wave.Number)
}
