package main

// CheckCollision reports whether a and b are closer than threshold
func CheckCollision(a, b Vec3, threshold float64) bool {
	return a.DistanceTo(b) < threshold
}

// firstBulletHit finds the newest live player bullet within threshold of
// pos. Each obstacle takes at most one bullet per pass. The grid must have
// been built from the current bullet pool.
func (g *Game) firstBulletHit(pos Vec3, threshold float64) *Bullet {
	items := g.bullets.Items()
	best := -1
	for _, i := range g.grid.Query(pos, threshold) {
		if i > best && items[i].Alive && CheckCollision(pos, items[i].Pos, threshold) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return items[best]
}

// updateBullets moves both bullet pools and resolves enemy bullets against
// the player
func (g *Game) updateBullets() {
	for _, b := range g.bullets.Items() {
		b.Update()
	}
	g.bullets.Compact(g.despawned)

	for _, b := range g.enemyBullets.Items() {
		if !b.Alive {
			continue
		}
		b.Advance()
		if !g.player.Invulnerable() && CheckCollision(b.Pos, g.player.Pos, EnemyBulletRadius) {
			g.applyDamage(EnemyBulletDamage)
			b.Kill()
			continue
		}
		if b.OutOfBounds() {
			b.Kill()
		}
	}
	g.enemyBullets.Compact(g.despawned)
}

// updateAsteroids moves asteroids and resolves them against the player and
// player bullets
func (g *Game) updateAsteroids() {
	g.grid.Reset(g.bullets.Items())
	items := g.asteroids.Items()
	for i := len(items) - 1; i >= 0; i-- {
		a := items[i]
		if !a.Alive {
			continue
		}
		a.Update()

		if !g.player.Invulnerable() && CheckCollision(a.Pos, g.player.Pos, a.ContactRadius()) {
			g.applyDamage(AsteroidContactDamage)
			g.explode(a.Pos, a.Size)
			a.Kill()
			continue
		}

		if b := g.firstBulletHit(a.Pos, a.Size); b != nil {
			b.Kill()
			if a.Hit() {
				g.explode(a.Pos, a.Size*AsteroidDebrisScale)
				g.addScore(a.Score())
				g.stats.AsteroidsDestroyed++
				g.maybeDrop(a.Pos, AsteroidDropChance)
				a.Kill()
				continue
			}
		}

		if a.PastCamera() {
			a.Kill()
		}
	}
	g.asteroids.Compact(g.despawned)
	g.bullets.Compact(g.despawned)
}

// updateEnemies runs enemy AI and resolves enemies against the player and
// player bullets
func (g *Game) updateEnemies(deltaMs float64) {
	now := g.clock.Now()
	g.grid.Reset(g.bullets.Items())
	items := g.enemies.Items()
	for i := len(items) - 1; i >= 0; i-- {
		e := items[i]
		if !e.Alive {
			continue
		}
		e.Update(deltaMs, g.player.Pos)

		if e.TryFire(now) {
			g.spawnBullet(SideEnemy, e.Pos, g.player.Pos.Sub(e.Pos))
		}

		if !g.player.Invulnerable() && CheckCollision(e.Pos, g.player.Pos, EnemyContactRadius) {
			g.applyDamage(EnemyContactDamage)
			g.explode(e.Pos, EnemyExplosionSize)
			e.Kill()
			continue
		}

		if b := g.firstBulletHit(e.Pos, EnemyHitRadius); b != nil {
			b.Kill()
			if e.Hit() {
				g.explode(e.Pos, EnemyExplosionSize)
				g.addScore(EnemyKillScore)
				g.stats.EnemiesDestroyed++
				g.maybeDrop(e.Pos, EnemyDropChance)
				e.Kill()
				continue
			}
		}

		if e.PastCamera() {
			e.Kill()
		}
	}
	g.enemies.Compact(g.despawned)
	g.bullets.Compact(g.despawned)
}

// updatePowerups drifts powerups and hands them to the player on contact.
// Pickup works while rolling.
func (g *Game) updatePowerups() {
	now := g.clock.Now()
	for _, p := range g.powerups.Items() {
		if !p.Alive {
			continue
		}
		p.Update()
		if CheckCollision(p.Pos, g.player.Pos, PowerupRadius) {
			p.Apply(g.player, now)
			g.stats.PowerupsCollected++
			g.emit(Event{Type: EventPowerup, Handle: p.ID, Pos: p.Pos, Powerup: p.Type})
			p.Kill()
			continue
		}
		if p.PastCamera() {
			p.Kill()
		}
	}
	g.powerups.Compact(g.despawned)
}

func (g *Game) updateExplosions(deltaMs float64) {
	for _, x := range g.explosions.Items() {
		x.Update(deltaMs)
	}
	g.explosions.Compact(g.despawned)
}
