package main

import "go.uber.org/zap"

const (
	ShieldAbsorbRatio = 0.7
	HitShake          = 15.0
	ShakeDecay        = 0.05 // per ms
)

// applyDamage hurts the player. Shield soaks up to 70% of the hit, the rest
// comes off health. Ignored while rolling or once the run is over.
func (g *Game) applyDamage(amount float64) {
	if g.phase != PhasePlaying || g.player.Invulnerable() {
		return
	}
	toShield, toHealth := g.player.TakeDamage(amount)
	g.shake = HitShake
	g.stats.DamageTaken += toShield + toHealth
	g.waveDamage += toShield + toHealth
	g.emit(Event{Type: EventPlayerHit, Pos: g.player.Pos, Amount: amount})

	if g.player.Dead() {
		g.gameOver()
	}
}

// gameOver ends the run. Safe to call more than once.
func (g *Game) gameOver() {
	if g.phase != PhasePlaying {
		return
	}
	g.phase = PhaseGameOver
	g.stats.Ended = g.clock.Now()
	g.stats.Score = g.score
	g.stats.Wave = g.wave.Number
	g.emit(Event{Type: EventGameOver, Pos: g.player.Pos, Amount: float64(g.score), Wave: g.wave.Number})
	g.log.Debug("game over",
		zap.Int("score", g.score),
		zap.Int("wave", g.wave.Number),
		zap.Uint64("tick", g.tick))
}

// explode spawns an explosion and kicks the camera
func (g *Game) explode(pos Vec3, size float64) {
	x := NewExplosion(g.nextHandle(), pos, size, g.rng)
	g.explosions.Add(x)
	g.spawned(x)
	g.shake = ExplosionShake * size
	g.emit(Event{Type: EventExplosion, Handle: x.ID, Pos: pos, Amount: size})
}

// maybeDrop rolls for a powerup at pos
func (g *Game) maybeDrop(pos Vec3, chance float64) {
	if g.dropsOff || g.rng.Float64() >= chance {
		return
	}
	p := NewPowerup(g.nextHandle(), pos, RandomPowerupType(g.rng))
	g.powerups.Add(p)
	g.spawned(p)
}
