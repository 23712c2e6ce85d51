package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBulletGridQuery(t *testing.T) {
	bullets := []*Bullet{
		NewBullet(1, SidePlayer, V3(0.5, 0.5, -10), Vec3{}),
		NewBullet(2, SidePlayer, V3(30, 0, -10), Vec3{}),
		NewBullet(3, SidePlayer, V3(-3.9, 0, -10), Vec3{}),
	}
	bullets[2].Kill()

	var g BulletGrid
	g.Reset(bullets)

	assert.ElementsMatch(t, []int{0}, g.Query(V3(1, 1, -10), 2))
	assert.Empty(t, g.Query(V3(100, 100, 100), 2))
	assert.NotContains(t, g.Query(V3(-4, 0, -10), 2), 2, "dead bullets are not indexed")
}

func TestBulletGridResetForgetsOldBullets(t *testing.T) {
	var g BulletGrid
	g.Reset([]*Bullet{NewBullet(1, SidePlayer, Vec3{}, Vec3{})})
	g.Reset(nil)
	assert.Empty(t, g.Query(Vec3{}, 1))
}

// bruteFirstHit is the reference scan: newest live bullet in range
func bruteFirstHit(bullets []*Bullet, pos Vec3, threshold float64) *Bullet {
	for i := len(bullets) - 1; i >= 0; i-- {
		if bullets[i].Alive && CheckCollision(pos, bullets[i].Pos, threshold) {
			return bullets[i]
		}
	}
	return nil
}

func TestFirstBulletHitMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g, _, _ := newTestGame(1, GameHooks{})
	startEmpty(g)

	for range 200 {
		pos := V3((rng.Float64()-0.5)*20, (rng.Float64()-0.5)*20, -rng.Float64()*20)
		b := placeBullet(g, SidePlayer, pos)
		if rng.Float64() < 0.2 {
			b.Kill()
		}
	}
	g.grid.Reset(g.bullets.Items())

	for range 500 {
		pos := V3((rng.Float64()-0.5)*24, (rng.Float64()-0.5)*24, -rng.Float64()*24)
		threshold := 0.5 + rng.Float64()*1.5
		assert.Same(t, bruteFirstHit(g.bullets.Items(), pos, threshold), g.firstBulletHit(pos, threshold))
	}
}
