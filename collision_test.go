package main

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCollisionIsStrict(t *testing.T) {
	assert.True(t, CheckCollision(Vec3{}, V3(0, 0, 0.99), 1))
	assert.False(t, CheckCollision(Vec3{}, V3(0, 0, 1), 1))
	assert.False(t, CheckCollision(Vec3{}, V3(3, 4, 0), 5))
}

func TestBulletDestroysAsteroid(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	a := placeAsteroid(g, V3(0, 0, -20), 1, 1)
	b := placeBullet(g, SidePlayer, V3(0, 0, -20))

	g.Step(16)

	assert.False(t, a.Alive)
	assert.False(t, b.Alive)
	assert.Empty(t, g.bullets.Items())
	assert.Equal(t, 10, g.Score())
	assert.Equal(t, 1, g.Stats().AsteroidsDestroyed)
	require.Len(t, g.explosions.Items(), 1)
	assert.Equal(t, AsteroidDebrisScale, g.explosions.Items()[0].Size)

	var gone []Handle
	for _, ev := range eventsOf(g.events, EventDespawn) {
		gone = append(gone, ev.Handle)
	}
	assert.ElementsMatch(t, []Handle{a.ID, b.ID}, gone)
}

func TestObstacleTakesOneBulletPerTick(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	a := placeAsteroid(g, V3(0, 0, -20), 1.5, 3)
	older := placeBullet(g, SidePlayer, V3(0, 0, -20))
	newer := placeBullet(g, SidePlayer, V3(0.1, 0, -20))

	g.Step(16)

	assert.Equal(t, 2, a.Health)
	assert.True(t, older.Alive)
	assert.False(t, newer.Alive, "the newest bullet is consumed first")
	assert.Len(t, g.bullets.Items(), 1)
	assert.Zero(t, g.Score())
}

func TestConsumedBulletCannotHitTwice(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	a := placeAsteroid(g, V3(0, 0, -30), 1, 2)
	e := placeEnemy(g, V3(0.5, 0, -30.08))
	placeBullet(g, SidePlayer, V3(0, 0, -30))

	g.Step(16)

	assert.Equal(t, 1, a.Health)
	assert.Equal(t, EnemyMaxHealth, e.Health)
}

func TestBulletsDestroyEnemy(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	e := placeEnemy(g, V3(0, 0, -30))

	for range EnemyMaxHealth {
		next := *e
		next.Update(16, g.player.Pos)
		placeBullet(g, SidePlayer, next.Pos)
		g.Step(16)
	}

	assert.False(t, e.Alive)
	assert.Equal(t, EnemyKillScore, g.Score())
	assert.Equal(t, 1, g.Stats().EnemiesDestroyed)
	assert.Empty(t, g.enemies.Items())
}

func TestEnemyFiresAtPlayer(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	e := placeEnemy(g, V3(4, 3, -20))
	e.LastShot = time.Time{}

	g.Step(16)

	require.Len(t, g.enemyBullets.Items(), 1)
	b := g.enemyBullets.Items()[0]
	assert.Equal(t, KindEnemyBullet, b.Kind())
	want := g.player.Pos.Sub(e.Pos).Normalize().Scale(EnemyBulletSpeed)
	assertVecNear(t, want, b.Vel, 1e-9)
}

func TestEnemyHoldsFireWhenFar(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	e := placeEnemy(g, V3(0, 0, -70))
	e.LastShot = time.Time{}

	g.Step(16)
	assert.Empty(t, g.enemyBullets.Items())
}

func TestEntitiesPastCameraAreDropped(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	a := placeAsteroid(g, V3(10, 10, AsteroidDespawnZ+0.5), 1, 2)
	e := placeEnemy(g, V3(-10, 10, EnemyDespawnZ+0.5))
	p := NewPowerup(g.nextHandle(), V3(10, -10, PowerupDespawnZ+0.5), PowerupRapid)
	g.powerups.Add(p)
	eb := placeBullet(g, SideEnemy, V3(0, 0, EnemyBulletMaxZ+1))

	g.Step(16)

	assert.False(t, a.Alive)
	assert.False(t, e.Alive)
	assert.False(t, p.Alive)
	assert.False(t, eb.Alive)
	assert.Zero(t, g.Score())
	assert.Zero(t, g.stats.DamageTaken)
}

func TestPowerupPickup(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	g.player.Health = 40
	p := NewPowerup(g.nextHandle(), V3(0, 0, -0.5), PowerupHealth)
	g.powerups.Add(p)

	g.Step(16)

	assert.False(t, p.Alive)
	assert.Equal(t, 70.0, g.player.Health)
	assert.Equal(t, 1, g.Stats().PowerupsCollected)
	picked := eventsOf(g.events, EventPowerup)
	require.Len(t, picked, 1)
	assert.Equal(t, PowerupHealth, picked[0].Powerup)
}

func TestPowerupPickupWhileRolling(t *testing.T) {
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)
	g.player.Roll.Trigger()
	p := NewPowerup(g.nextHandle(), V3(0, 0, -0.5), PowerupShield)
	g.powerups.Add(p)

	g.Step(16)
	assert.False(t, p.Alive)
}

// Every obstacle hit by exactly the bullets it needs scores exactly its value.
func TestShootingEverythingScoresExactly(t *testing.T) {
	g, _, _ := newTestGame(9, GameHooks{})
	startEmpty(g)
	rng := rand.New(rand.NewSource(9))

	want := 0
	for i := range 12 {
		pos := V3(-24+float64(i%9)*6, -12+float64(i/9)*6, -60)
		a := NewAsteroid(g.nextHandle(), pos, rng)
		a.Vel = Vec3{}
		g.asteroids.Add(a)
		want += a.Score()
	}
	for i := range 4 {
		placeEnemy(g, V3(-15+float64(i)*10, 12, -60))
		want += EnemyKillScore
	}

	for tick := 0; tick < 20 && (g.asteroids.Len() > 0 || g.enemies.Len() > 0); tick++ {
		for _, a := range g.asteroids.Items() {
			placeBullet(g, SidePlayer, a.Pos)
		}
		for _, e := range g.enemies.Items() {
			next := *e
			next.Update(16, g.player.Pos)
			placeBullet(g, SidePlayer, next.Pos)
		}
		g.Step(16)
	}

	assert.Zero(t, g.asteroids.Len())
	assert.Zero(t, g.enemies.Len())
	assert.Equal(t, want, g.Score())
	assert.Equal(t, 12, g.Stats().AsteroidsDestroyed)
	assert.Equal(t, 4, g.Stats().EnemiesDestroyed)
	assert.Zero(t, g.stats.DamageTaken)
}

// Shooting down a freshly spawned wave scores ceil(size*10) per asteroid
// plus the flat enemy bounty.
func TestShootingDownSpawnedWaveScoresExactly(t *testing.T) {
	g, _, _ := newTestGame(42, GameHooks{})
	g.Start()

	want := 0
	for _, a := range g.asteroids.Items() {
		want += int(math.Ceil(a.Size * 10))
	}
	want += EnemyKillScore * g.enemies.Len()
	require.Equal(t, AsteroidCount(1), g.asteroids.Len())
	require.Equal(t, EnemyCount(1), g.enemies.Len())

	// the deepest asteroids spawn beyond bullet range and have to drift in
	for tick := 0; tick < 1000 && (g.asteroids.Len() > 0 || g.enemies.Len() > 0); tick++ {
		for _, a := range g.asteroids.Items() {
			next := *a
			next.Update()
			if next.Pos.Z > BulletMinZ {
				placeBullet(g, SidePlayer, next.Pos)
			}
		}
		for _, e := range g.enemies.Items() {
			next := *e
			next.Update(16, g.player.Pos)
			placeBullet(g, SidePlayer, next.Pos)
		}
		g.Step(16)
	}

	require.Equal(t, PhasePlaying, g.Phase())
	assert.Zero(t, g.asteroids.Len())
	assert.Zero(t, g.enemies.Len())
	assert.Equal(t, want, g.Score())
	assert.Equal(t, AsteroidCount(1), g.Stats().AsteroidsDestroyed)
	assert.Equal(t, EnemyCount(1), g.Stats().EnemiesDestroyed)
}
