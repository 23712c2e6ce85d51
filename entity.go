package main

// Handle identifies an entity for the lifetime of a game. Handles are never
// reused within a run, so a renderer can key its drawables by them.
type Handle uint32

// Kind tags the entity variant
type Kind uint8

const (
	KindPlayerBullet Kind = iota + 1
	KindEnemyBullet
	KindAsteroid
	KindEnemy
	KindExplosion
	KindPowerup
)

func (k Kind) String() string {
	switch k {
	case KindPlayerBullet:
		return "bullet"
	case KindEnemyBullet:
		return "enemy_bullet"
	case KindAsteroid:
		return "asteroid"
	case KindEnemy:
		return "enemy"
	case KindExplosion:
		return "explosion"
	case KindPowerup:
		return "powerup"
	}
	return "unknown"
}

// Entity is implemented by every pooled variant
type Entity interface {
	Handle() Handle
	Kind() Kind
	IsAlive() bool
	Position() Vec3
}

// Body holds the fields shared by all entities
type Body struct {
	ID    Handle
	Pos   Vec3
	Vel   Vec3
	Rot   Euler
	Alive bool
}

func (b *Body) Handle() Handle { return b.ID }
func (b *Body) IsAlive() bool { return b.Alive }
func (b *Body) Position() Vec3 { return b.Pos }
func (b *Body) Kill() { b.Alive = false }

// move advances position by one tick of velocity
func (b *Body) move() {
	b.Pos = b.Pos.Add(b.Vel)
}
