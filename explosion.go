package main

import "math/rand"

const (
	ExplosionParticles = 30
	ParticleSpread     = 0.3
	ParticleDecay      = 0.002 // life per ms
	RingStartOpacity   = 0.8
	RingFade           = 0.05 // opacity per tick
	RingGrowth         = 0.2  // scale per tick, times explosion size
	ExplosionShake     = 10.0 // camera shake per unit of size
)

// Particle is one debris fragment
type Particle struct {
	Pos  Vec3
	Vel  Vec3
	Life float64 // 1 at spawn, fades to 0
}

// Explosion is a burst of particles plus an expanding shockwave ring. It is
// finished once every particle has faded and the ring is gone.
type Explosion struct {
	Body
	Size        float64
	Particles   []Particle
	RingScale   float64
	RingOpacity float64
	RingActive  bool
}

// NewExplosion creates an explosion at pos scaled by size
func NewExplosion(id Handle, pos Vec3, size float64, rng *rand.Rand) *Explosion {
	x := &Explosion{
		Body:        Body{ID: id, Pos: pos, Alive: true},
		Size:        size,
		Particles:   make([]Particle, ExplosionParticles),
		RingScale:   1,
		RingOpacity: RingStartOpacity,
		RingActive:  true,
	}
	for i := range x.Particles {
		x.Particles[i] = Particle{
			Pos: pos,
			Vel: Vec3{
				X: (rng.Float64() - 0.5) * ParticleSpread * size,
				Y: (rng.Float64() - 0.5) * ParticleSpread * size,
				Z: (rng.Float64() - 0.5) * ParticleSpread * size,
			},
			Life: 1,
		}
	}
	return x
}

func (x *Explosion) Kind() Kind { return KindExplosion }

// Update advances particles and the ring by one tick
func (x *Explosion) Update(deltaMs float64) {
	if !x.Alive {
		return
	}
	live := false
	for i := range x.Particles {
		p := &x.Particles[i]
		p.Pos = p.Pos.Add(p.Vel)
		p.Life -= deltaMs * ParticleDecay
		if p.Life > 0 {
			live = true
		} else {
			p.Life = 0
		}
	}

	if x.RingActive {
		x.RingScale += RingGrowth * x.Size
		x.RingOpacity -= RingFade
		if x.RingOpacity <= 0 {
			x.RingOpacity = 0
			x.RingActive = false
		}
	}

	if !live && !x.RingActive {
		x.Alive = false
	}
}

// ToState converts to protocol state
func (x *Explosion) ToState() ExplosionState {
	s := ExplosionState{
		ID:          x.ID,
		Pos:         roundVec(x.Pos),
		Size:        round2(x.Size),
		RingScale:   round2(x.RingScale),
		RingOpacity: round2(x.RingOpacity),
		Particles:   make([]ParticleState, 0, len(x.Particles)),
	}
	for _, p := range x.Particles {
		if p.Life <= 0 {
			continue
		}
		s.Particles = append(s.Particles, ParticleState{Pos: roundVec(p.Pos), Life: round2(p.Life)})
	}
	return s
}
