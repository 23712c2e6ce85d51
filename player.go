package main

import "time"

const (
	MaxResource = 100.0

	PlayerMoveSpeed  = 0.15 // units/tick
	PlayerBoostSpeed = 0.25
	PlayerBoundX     = 25.0
	PlayerBoundY     = 15.0
	PlayerPitchTilt  = 0.3 // radians
	PlayerRollTilt   = 0.5
	PlayerEaseRate   = 0.1
	PlayerYawScale   = 0.3

	BoostDrainRate  = 0.03 // per ms
	BoostRegenRate  = 0.01
	ShieldRegenRate = 0.005

	ShotCooldown      = 150 * time.Millisecond
	RapidFireDivisor  = 3
	MuzzleFlashTime   = 50.0 // ms
	MuzzleFlashBright = 3.0
	MuzzleFlashIdle   = 1.0
)

// Player is the ship under the pilot's control
type Player struct {
	Pos Vec3
	Rot Euler

	Health float64
	Shield float64
	Boost  float64

	BoostActive bool
	Roll        BarrelRoll

	LastShot     time.Time
	RapidFire    bool
	RapidFireEnd time.Time
}

// NewPlayer creates a ship at the origin with full resources
func NewPlayer() *Player {
	p := &Player{}
	p.Reset()
	return p
}

// Reset puts the ship back at the origin with full resources
func (p *Player) Reset() {
	*p = Player{
		Health: MaxResource,
		Shield: MaxResource,
		Boost:  MaxResource,
	}
}

// Update applies one tick of pilot intent. Boost is resolved first so the
// speed used for this tick's movement reflects this tick's boost state.
func (p *Player) Update(deltaMs float64, in InputSource, now time.Time) {
	if in.TakePress(ActionBarrelRoll) {
		p.Roll.Trigger()
	}

	p.updateBoost(deltaMs, in.IsActionHeld(ActionBoost))

	speed := PlayerMoveSpeed
	if p.BoostActive {
		speed = PlayerBoostSpeed
	}
	var target Euler
	if in.IsActionHeld(ActionUp) {
		p.Pos.Y += speed
		target.X = -PlayerPitchTilt
	}
	if in.IsActionHeld(ActionDown) {
		p.Pos.Y -= speed
		target.X = PlayerPitchTilt
	}
	if in.IsActionHeld(ActionLeft) {
		p.Pos.X -= speed
		target.Z = PlayerRollTilt
	}
	if in.IsActionHeld(ActionRight) {
		p.Pos.X += speed
		target.Z = -PlayerRollTilt
	}
	p.Pos.X = Clamp(p.Pos.X, -PlayerBoundX, PlayerBoundX)
	p.Pos.Y = Clamp(p.Pos.Y, -PlayerBoundY, PlayerBoundY)

	p.Rot.X = Ease(p.Rot.X, target.X, PlayerEaseRate)
	p.Rot.Z = Ease(p.Rot.Z, target.Z, PlayerEaseRate)
	p.Roll.Advance(&p.Rot)

	px, _ := in.PointerOffset()
	p.Rot.Y = px * PlayerYawScale

	p.Roll.Cool(deltaMs)
	if p.RapidFire && now.After(p.RapidFireEnd) {
		p.RapidFire = false
	}

	p.Shield = Clamp(p.Shield+deltaMs*ShieldRegenRate, 0, MaxResource)
}

func (p *Player) updateBoost(deltaMs float64, held bool) {
	if !held {
		p.BoostActive = false
		p.Boost = Clamp(p.Boost+deltaMs*BoostRegenRate, 0, MaxResource)
		return
	}
	if p.Boost <= 0 {
		p.BoostActive = false
		return
	}
	p.BoostActive = true
	p.Boost = Clamp(p.Boost-deltaMs*BoostDrainRate, 0, MaxResource)
}

// FireCooldown is the minimum time between shots right now
func (p *Player) FireCooldown() time.Duration {
	if p.RapidFire {
		return ShotCooldown / RapidFireDivisor
	}
	return ShotCooldown
}

// TryFire reports whether a shot may be taken at now and records it
func (p *Player) TryFire(now time.Time) bool {
	if now.Sub(p.LastShot) < p.FireCooldown() {
		return false
	}
	p.LastShot = now
	return true
}

// Muzzles returns the two wing-tip spawn points and the ship's forward axis
func (p *Player) Muzzles() (left, right, forward Vec3) {
	forward = p.Rot.Rotate(Vec3{Z: -1})
	left = p.Pos.Add(p.Rot.Rotate(Vec3{X: -BulletWingOffset}))
	right = p.Pos.Add(p.Rot.Rotate(Vec3{X: BulletWingOffset}))
	return left, right, forward
}

// Invulnerable reports whether damage is currently ignored
func (p *Player) Invulnerable() bool {
	return p.Roll.Active
}

// TakeDamage runs the shield absorption rule and returns the amounts taken
// from shield and health. Nothing happens while rolling.
func (p *Player) TakeDamage(amount float64) (toShield, toHealth float64) {
	if p.Invulnerable() || amount <= 0 {
		return 0, 0
	}
	toShield = min(p.Shield, amount*ShieldAbsorbRatio)
	toHealth = amount - toShield
	p.Shield = Clamp(p.Shield-toShield, 0, MaxResource)
	p.Health = Clamp(p.Health-toHealth, 0, MaxResource)
	return toShield, toHealth
}

// Dead reports whether health is exhausted
func (p *Player) Dead() bool {
	return p.Health <= 0
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		Pos:     roundVec(p.Pos),
		Rot:     roundEuler(p.Rot),
		Boost:   p.BoostActive,
		Rolling: p.Roll.Active,
	}
}
