package main

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	TickRate     = 60 // simulation ticks per second
	TickDuration = time.Second / TickRate

	maxPendingEvents = 4096
)

// ErrNotGameOver is returned by Restart while a run is still going
var ErrNotGameOver = errors.New("game is not over")

// GameHooks are called outside the game lock after the tick that raised them
type GameHooks struct {
	OnStart       func()
	OnWaveCleared func(wave int, flawless bool)
	OnGameOver    func(stats RunStats)
}

// GameOptions configures a Game. Zero values pick production defaults.
type GameOptions struct {
	Rand         *rand.Rand
	Clock        Clock
	Input        InputSource
	Presenter    Presenter
	Logger       *zap.Logger
	Hooks        GameHooks
	DisableDrops bool
	MaxDelta     float64 // ms, 0 means unbounded
}

// Game is one single-player session: the ship, every entity pool, the wave
// director and the score. Everything below mu is guarded by it.
type Game struct {
	mu sync.Mutex

	rng       *rand.Rand
	clock     Clock
	input     InputSource
	presenter Presenter
	log       *zap.Logger
	hooks     GameHooks
	dropsOff  bool
	maxDelta  float64

	phase        Phase
	player       *Player
	bullets      Pool[*Bullet]
	enemyBullets Pool[*Bullet]
	asteroids    Pool[*Asteroid]
	enemies      Pool[*Enemy]
	explosions   Pool[*Explosion]
	powerups     Pool[*Powerup]
	grid         BulletGrid
	wave         WaveState
	score        int
	handles      Handle
	tick         uint64

	shake      float64 // camera shake magnitude
	flash      float64 // ms of muzzle flash left
	waveDamage float64
	stats      RunStats
	events     []Event // drained by Frame
	notices    []Event // drained by Step for hooks
}

// NewGame creates a game sitting in the menu
func NewGame(opts GameOptions) *Game {
	g := &Game{
		rng:       opts.Rand,
		clock:     opts.Clock,
		input:     opts.Input,
		presenter: opts.Presenter,
		log:       opts.Logger,
		hooks:     opts.Hooks,
		dropsOff:  opts.DisableDrops,
		maxDelta:  opts.MaxDelta,
		phase:     PhaseMenu,
		player:    NewPlayer(),
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.clock == nil {
		g.clock = SystemClock
	}
	if g.input == nil {
		g.input = noInput{}
	}
	if g.presenter == nil {
		g.presenter = nopPresenter{}
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	return g
}

// Start resets everything and begins wave 1
func (g *Game) Start() {
	g.mu.Lock()
	g.startLocked()
	g.mu.Unlock()
	g.started()
}

// Restart starts a fresh run after game over
func (g *Game) Restart() error {
	g.mu.Lock()
	if g.phase != PhaseGameOver {
		g.mu.Unlock()
		return ErrNotGameOver
	}
	g.startLocked()
	g.mu.Unlock()
	g.started()
	return nil
}

func (g *Game) startLocked() {
	g.reset()
	g.phase = PhasePlaying
	g.stats.Started = g.clock.Now()
	g.stats.Wave = 1
	g.spawnWave(g.wave.Number)
}

func (g *Game) started() {
	g.log.Debug("game started")
	if g.hooks.OnStart != nil {
		g.hooks.OnStart()
	}
}

func (g *Game) reset() {
	g.bullets.Clear(g.despawned)
	g.enemyBullets.Clear(g.despawned)
	g.asteroids.Clear(g.despawned)
	g.enemies.Clear(g.despawned)
	g.explosions.Clear(g.despawned)
	g.powerups.Clear(g.despawned)
	g.player.Reset()
	g.wave = WaveState{Number: 1}
	g.score = 0
	g.shake = 0
	g.flash = 0
	g.waveDamage = 0
	g.stats = RunStats{}
	g.notices = nil
	// stale presses from the menu must not fire or roll on the first tick
	for a := Action(0); a < actionCount; a++ {
		g.input.TakePress(a)
	}
}

// Step advances the simulation by deltaMs. It does nothing unless a run is
// in progress.
func (g *Game) Step(deltaMs float64) {
	g.mu.Lock()
	if g.phase != PhasePlaying {
		g.mu.Unlock()
		return
	}
	g.step(deltaMs)
	notable := g.notices
	g.notices = nil
	stats := g.stats
	g.mu.Unlock()

	for _, ev := range notable {
		switch ev.Type {
		case EventWaveCleared:
			if g.hooks.OnWaveCleared != nil {
				g.hooks.OnWaveCleared(ev.Wave, ev.Flawless)
			}
		case EventGameOver:
			if g.hooks.OnGameOver != nil {
				g.hooks.OnGameOver(stats)
			}
		}
	}
}

func (g *Game) step(deltaMs float64) {
	if deltaMs < 0 {
		deltaMs = 0
	}
	if g.maxDelta > 0 && deltaMs > g.maxDelta {
		deltaMs = g.maxDelta
	}
	g.tick++

	if g.flash > 0 {
		g.flash -= deltaMs
	}

	g.updatePlayer(deltaMs)
	g.updateBullets()
	g.updateAsteroids()
	g.updateEnemies(deltaMs)
	g.updateExplosions(deltaMs)
	g.updatePowerups()
	if g.phase == PhasePlaying {
		g.checkWave(deltaMs)
	}

	if g.shake > 0 {
		g.shake -= deltaMs * ShakeDecay
		if g.shake < 0 {
			g.shake = 0
		}
	}
}

func (g *Game) updatePlayer(deltaMs float64) {
	now := g.clock.Now()
	g.player.Update(deltaMs, g.input, now)

	// a click fires once; holding the button keeps firing
	wantFire := g.input.TakePress(ActionFire) || g.input.IsActionHeld(ActionFire)
	if !wantFire || !g.player.TryFire(now) {
		return
	}
	left, right, forward := g.player.Muzzles()
	g.spawnBullet(SidePlayer, left, forward)
	g.spawnBullet(SidePlayer, right, forward)
	g.flash = MuzzleFlashTime
	g.stats.ShotsFired++
}

func (g *Game) spawnBullet(side Side, pos, dir Vec3) *Bullet {
	b := NewBullet(g.nextHandle(), side, pos, dir)
	if side == SideEnemy {
		g.enemyBullets.Add(b)
	} else {
		g.bullets.Add(b)
	}
	g.spawned(b)
	return b
}

func (g *Game) addScore(n int) {
	g.score += n
	g.stats.Score = g.score
}

func (g *Game) nextHandle() Handle {
	g.handles++
	return g.handles
}

func (g *Game) emit(ev Event) {
	if len(g.events) >= maxPendingEvents {
		// nobody is draining; keep the newest half
		n := copy(g.events, g.events[len(g.events)/2:])
		g.events = g.events[:n]
	}
	g.events = append(g.events, ev)
	if ev.Type == EventWaveCleared || ev.Type == EventGameOver {
		g.notices = append(g.notices, ev)
	}
}

func (g *Game) spawned(e Entity) {
	g.emit(Event{Type: EventSpawn, Handle: e.Handle(), Kind: e.Kind(), Pos: e.Position()})
}

func (g *Game) despawned(e Entity) {
	g.emit(Event{Type: EventDespawn, Handle: e.Handle(), Kind: e.Kind()})
}

// Phase returns the current top-level state
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Score returns the current score
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// Stats returns a copy of the current run's stats
func (g *Game) Stats() RunStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Run drives the game from a wall-clock ticker until ctx is done, handing
// a frame to the presenter every tick.
func (g *Game) Run(ctx context.Context, rate int) error {
	if rate <= 0 {
		rate = TickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := g.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := g.clock.Now()
			delta := float64(now.Sub(last)) / float64(time.Millisecond)
			last = now
			g.Step(delta)
			g.Present()
		}
	}
}

// Present builds the current frame and hands it to the presenter
func (g *Game) Present() {
	f := g.Frame()
	g.presenter.Present(f)
}

// Frame snapshots the game for rendering and drains pending events
func (g *Game) Frame() *FrameMsg {
	g.mu.Lock()
	defer g.mu.Unlock()

	flash := MuzzleFlashIdle
	if g.flash > 0 {
		flash = MuzzleFlashBright
	}
	p := g.player
	f := &FrameMsg{
		Tick:  g.tick,
		Phase: uint8(g.phase),
		HUD: HUDState{
			Score:     g.score,
			Wave:      g.wave.Number,
			Health:    round1(p.Health),
			Shield:    round1(p.Shield),
			Boost:     round1(p.Boost),
			RapidFire: p.RapidFire,
			RollReady: p.Roll.Cooldown <= 0,
		},
		Camera:       CameraState{Shake: round2(g.shake), Flash: flash},
		Player:       p.ToState(),
		Bullets:      make([]BulletState, 0, g.bullets.Len()),
		EnemyBullets: make([]BulletState, 0, g.enemyBullets.Len()),
		Asteroids:    make([]AsteroidState, 0, g.asteroids.Len()),
		Enemies:      make([]EnemyState, 0, g.enemies.Len()),
		Explosions:   make([]ExplosionState, 0, g.explosions.Len()),
		Powerups:     make([]PowerupState, 0, g.powerups.Len()),
		Events:       g.events,
	}
	for _, b := range g.bullets.Items() {
		f.Bullets = append(f.Bullets, b.ToState())
	}
	for _, b := range g.enemyBullets.Items() {
		f.EnemyBullets = append(f.EnemyBullets, b.ToState())
	}
	for _, a := range g.asteroids.Items() {
		f.Asteroids = append(f.Asteroids, a.ToState())
	}
	for _, e := range g.enemies.Items() {
		f.Enemies = append(f.Enemies, e.ToState())
	}
	for _, x := range g.explosions.Items() {
		f.Explosions = append(f.Explosions, x.ToState())
	}
	for _, pu := range g.powerups.Items() {
		f.Powerups = append(f.Powerups, pu.ToState())
	}
	g.events = nil
	return f
}
