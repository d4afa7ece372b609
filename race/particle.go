/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import "math"

const (
	TrailCount    = 4
	TrailLife     = 40
	trailAlpha    = 0.6
	FireworkCount = 30
	FireworkLife  = 60

	// Particles larger than this are drawn as glowing circles.
	circleThreshold = 6
)

// Particle is a short-lived decorative dot.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Life    int
	MaxLife int
	Color   Color
	Size    float64
	Alpha   float64
}

// DrawAlpha fades the particle out with its remaining life.
func (p Particle) DrawAlpha() float64 {
	if p.MaxLife <= 0 || p.Life <= 0 {
		return 0
	}

	return p.Alpha * float64(p.Life) / float64(p.MaxLife)
}

// Particles is the live particle collection.
type Particles struct {
	live []Particle
	rng  Random
}

func NewParticles(rng Random) *Particles {
	return &Particles{rng: rng}
}

func (ps *Particles) Spawn(p Particle) {
	if p.MaxLife == 0 {
		p.MaxLife = p.Life
	}

	ps.live = append(ps.live, p)
}

// Trail emits a small burst drifting back and sideways from (x, y).
func (ps *Particles) Trail(x, y float64, c Color) {
	for range TrailCount {
		ps.Spawn(Particle{
			X:     x - 10 + ps.rng.Float64()*10,
			Y:     y + ps.rng.Float64()*20 - 10,
			VX:    -ps.rng.Float64()*1.5 - 0.5,
			VY:    ps.rng.Float64() - 0.5,
			Life:  TrailLife,
			Color: c,
			Size:  ps.rng.Float64()*8 + 4,
			Alpha: trailAlpha,
		})
	}
}

// Firework emits a full radial burst from (x, y).
func (ps *Particles) Firework(x, y float64, c Color) {
	for i := range FireworkCount {
		angle := 2 * math.Pi * float64(i) / FireworkCount
		speed := ps.rng.Float64()*3 + 2

		ps.Spawn(Particle{
			X:     x,
			Y:     y,
			VX:    math.Cos(angle) * speed,
			VY:    math.Sin(angle) * speed,
			Life:  FireworkLife,
			Color: c,
			Size:  ps.rng.Float64()*4 + 2,
			Alpha: 1,
		})
	}
}

// Update advances every particle one frame and drops the expired ones.
func (ps *Particles) Update() {
	dst := ps.live[:0]

	for _, p := range ps.live {
		p.X += p.VX
		p.Y += p.VY
		p.Life--

		if p.Life <= 0 {
			continue
		}
		dst = append(dst, p)
	}

	clear(ps.live[len(dst):])
	ps.live = dst
}

func (ps *Particles) Live() []Particle {
	return ps.live
}

func (ps *Particles) Len() int {
	return len(ps.live)
}

func (ps *Particles) Clear() {
	ps.live = nil
}
