package main

import "go.uber.org/zap"

const (
	WaveClearDelay    = 2000.0 // ms with both pools empty before the next wave
	AsteroidsBase     = 10
	AsteroidsPerWave  = 3
	EnemiesPerWave    = 2
	MaxEnemiesPerWave = 15

	// spawn bands, all ahead of the player at negative depth
	AsteroidSpawnWidth  = 50.0
	AsteroidSpawnHeight = 30.0
	AsteroidSpawnNear   = -50.0
	AsteroidSpawnDepth  = 100.0
	EnemySpawnWidth     = 40.0
	EnemySpawnHeight    = 20.0
	EnemySpawnNear      = -30.0
	EnemySpawnDepth     = 50.0
)

// WaveState tracks the current wave and how long the field has been clear
type WaveState struct {
	Number     int
	ClearTimer float64 // ms
}

// AsteroidCount is the number of asteroids in wave n
func AsteroidCount(n int) int {
	return AsteroidsBase + AsteroidsPerWave*n
}

// EnemyCount is the number of enemies in wave n
func EnemyCount(n int) int {
	return min(EnemiesPerWave*n, MaxEnemiesPerWave)
}

// Tick accumulates clear time while the field is empty and reports whether
// the wave should advance. At most one advance per call.
func (w *WaveState) Tick(deltaMs float64, empty bool) bool {
	if !empty {
		w.ClearTimer = 0
		return false
	}
	w.ClearTimer += deltaMs
	if w.ClearTimer > WaveClearDelay {
		w.Number++
		w.ClearTimer = 0
		return true
	}
	return false
}

// spawnWave fills the field for wave n
func (g *Game) spawnWave(n int) {
	for range AsteroidCount(n) {
		pos := Vec3{
			X: (g.rng.Float64() - 0.5) * AsteroidSpawnWidth,
			Y: (g.rng.Float64() - 0.5) * AsteroidSpawnHeight,
			Z: AsteroidSpawnNear - g.rng.Float64()*AsteroidSpawnDepth,
		}
		a := NewAsteroid(g.nextHandle(), pos, g.rng)
		g.asteroids.Add(a)
		g.spawned(a)
	}
	for range EnemyCount(n) {
		pos := Vec3{
			X: (g.rng.Float64() - 0.5) * EnemySpawnWidth,
			Y: (g.rng.Float64() - 0.5) * EnemySpawnHeight,
			Z: EnemySpawnNear - g.rng.Float64()*EnemySpawnDepth,
		}
		e := NewEnemy(g.nextHandle(), pos, g.rng)
		g.enemies.Add(e)
		g.spawned(e)
	}
	g.log.Debug("wave spawned",
		zap.Int("wave", n),
		zap.Int("asteroids", AsteroidCount(n)),
		zap.Int("enemies", EnemyCount(n)))
}

// checkWave advances to the next wave once the field has stayed clear
func (g *Game) checkWave(deltaMs float64) {
	cleared := g.wave.Number
	empty := g.asteroids.Len() == 0 && g.enemies.Len() == 0
	if !g.wave.Tick(deltaMs, empty) {
		return
	}
	flawless := g.waveDamage == 0
	if flawless {
		g.stats.FlawlessWaves++
	}
	g.waveDamage = 0
	g.stats.Wave = g.wave.Number
	g.emit(Event{Type: EventWaveCleared, Wave: cleared, Flawless: flawless})
	g.spawnWave(g.wave.Number)
}
