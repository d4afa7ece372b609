/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import "math"

const (
	backgroundColor = "#050505"
	laneColor       = "#1a1a1a"
	startLineColor  = "#06ffa5"
	finishLineColor = "#ff006e"
	eyeColor        = "#000000"

	StartLineX = 40
	ghostSize  = 30
	labelSize  = 10
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke describes a line.
type Stroke struct {
	Color string
	Width float64
	Dash  []float64
}

// Fill describes a filled shape or text.
type Fill struct {
	Color string
	Alpha float64
	Glow  float64
}

// Surface is a 2D drawing context.
type Surface interface {
	Clear(color string)
	Line(from, to Point, s Stroke)
	Arc(center Point, radius float64, f Fill)
	Poly(points []Point, f Fill)
	Rect(x, y, w, h float64, f Fill)
	Text(at Point, text string, size float64, f Fill)
}

// Scene is everything the renderer reads for one frame.
type Scene struct {
	Width     float64
	Height    float64
	Lanes     int
	Racers    []Racer
	Particles []Particle

	// Time in seconds since the controller was created; drives the
	// floating and flickering of the ghosts.
	Time float64
}

// Render draws sc onto s.
func Render(sc Scene, s Surface) {
	s.Clear(backgroundColor)

	drawTrack(sc, s)

	for _, p := range sc.Particles {
		drawParticle(p, s)
	}

	for _, r := range sc.Racers {
		drawRacer(r, sc.Time*3, s)
	}
}

func drawTrack(sc Scene, s Surface) {
	if sc.Lanes > 0 {
		laneHeight := sc.Height / float64(sc.Lanes)

		for i := 1; i < sc.Lanes; i++ {
			y := float64(i) * laneHeight
			s.Line(Point{0, y}, Point{sc.Width, y}, Stroke{Color: laneColor, Width: 2})
		}
	}

	s.Line(Point{StartLineX, 0}, Point{StartLineX, sc.Height}, Stroke{
		Color: startLineColor,
		Width: 3,
		Dash:  []float64{10, 5},
	})

	finishX := sc.Width * FinishLineFraction
	s.Line(Point{finishX, 0}, Point{finishX, sc.Height}, Stroke{
		Color: finishLineColor,
		Width: 4,
		Dash:  []float64{15, 5},
	})
}

func drawParticle(p Particle, s Surface) {
	alpha := p.DrawAlpha()
	if alpha <= 0 {
		return
	}

	if p.Size > circleThreshold {
		s.Arc(Point{p.X, p.Y}, p.Size/2, Fill{Color: p.Color.Hex(), Alpha: alpha, Glow: 10})
		return
	}

	s.Rect(p.X, p.Y, p.Size, p.Size, Fill{Color: p.Color.Hex(), Alpha: alpha})
}

func drawRacer(r Racer, t float64, s Surface) {
	const size = ghostSize

	lane := float64(r.Lane)
	baseY := r.Y + math.Sin(t+lane)*8
	opacity := 0.85 + math.Sin(t*2+lane)*0.15

	body := Fill{Color: r.Color.Hex(), Alpha: opacity, Glow: 20}

	s.Arc(Point{r.X + size/2, baseY - size/3}, size*0.6, body)

	tail := make([]Point, 0, 8)
	tail = append(tail, Point{r.X - size*0.1, baseY})
	for i := range 4 {
		tail = append(tail, Point{
			X: r.X + size*0.3*float64(i),
			Y: baseY + size*0.3 + math.Sin(t*3+float64(i))*5,
		})
	}
	tail = append(tail,
		Point{r.X + size, baseY - size*0.2},
		Point{r.X + size, baseY - size/3},
		Point{r.X - size*0.1, baseY - size/3},
	)
	s.Poly(tail, body)

	eyes := Fill{Color: eyeColor, Alpha: opacity}
	s.Rect(r.X+size*0.2, baseY-size*0.5, 5, 5, eyes)
	s.Rect(r.X+size*0.5, baseY-size*0.5, 5, 5, eyes)

	s.Text(Point{r.X + size/2, baseY - size - 10}, r.Name, labelSize, Fill{
		Color: r.Color.Hex(),
		Alpha: 1,
		Glow:  10,
	})
}
