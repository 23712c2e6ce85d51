package main

const (
	BulletSpeed      = 1.2 // units/tick
	EnemyBulletSpeed = 0.5
	BulletWingOffset = 0.8 // lateral spawn offset in ship space
	TrailLength      = 10

	// player bullets live inside this depth band
	BulletMinZ = -100.0
	BulletMaxZ = 50.0
	// enemy bullets die once past the camera or this far off-axis
	EnemyBulletMaxZ    = 50.0
	EnemyBulletMaxSide = 50.0

	EnemyBulletDamage = 15
	EnemyBulletRadius = 1.0
)

// Side says who fired a bullet
type Side uint8

const (
	SidePlayer Side = iota
	SideEnemy
)

// Bullet is a straight-line projectile with a short position trail
type Bullet struct {
	Body
	Side  Side
	Trail []Vec3 // newest first
}

// NewBullet creates a bullet at pos heading along dir
func NewBullet(id Handle, side Side, pos, dir Vec3) *Bullet {
	speed := BulletSpeed
	if side == SideEnemy {
		speed = EnemyBulletSpeed
	}
	dir = dir.Normalize()
	return &Bullet{
		Body: Body{
			ID:    id,
			Pos:   pos,
			Vel:   dir.Scale(speed),
			Rot:   LookAt(pos, pos.Add(dir)),
			Alive: true,
		},
		Side:  side,
		Trail: make([]Vec3, 0, TrailLength+1),
	}
}

func (b *Bullet) Kind() Kind {
	if b.Side == SideEnemy {
		return KindEnemyBullet
	}
	return KindPlayerBullet
}

// Update moves the bullet one tick, records the trail and expires it once
// it leaves its bounds
func (b *Bullet) Update() {
	if !b.Alive {
		return
	}
	b.Advance()
	if b.OutOfBounds() {
		b.Alive = false
	}
}

// Advance moves the bullet one tick and records the trail
func (b *Bullet) Advance() {
	b.move()
	b.recordTrail()
}

func (b *Bullet) recordTrail() {
	b.Trail = append(b.Trail, Vec3{})
	copy(b.Trail[1:], b.Trail)
	b.Trail[0] = b.Pos
	if len(b.Trail) > TrailLength {
		b.Trail = b.Trail[:TrailLength]
	}
}

// OutOfBounds reports whether the bullet has left the playfield
func (b *Bullet) OutOfBounds() bool {
	if b.Side == SidePlayer {
		return b.Pos.Z < BulletMinZ || b.Pos.Z > BulletMaxZ
	}
	return b.Pos.Z > EnemyBulletMaxZ ||
		b.Pos.X > EnemyBulletMaxSide || b.Pos.X < -EnemyBulletMaxSide ||
		b.Pos.Y > EnemyBulletMaxSide || b.Pos.Y < -EnemyBulletMaxSide
}

// ToState converts to protocol state
func (b *Bullet) ToState() BulletState {
	trail := make([]Vec3, len(b.Trail))
	for i, p := range b.Trail {
		trail[i] = Vec3{round2(p.X), round2(p.Y), round2(p.Z)}
	}
	return BulletState{
		ID:    b.ID,
		Pos:   roundVec(b.Pos),
		Trail: trail,
	}
}
