/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

// OpKind names a drawing primitive.
type OpKind string

const (
	OpClear OpKind = "clear"
	OpLine  OpKind = "line"
	OpArc   OpKind = "arc"
	OpPoly  OpKind = "poly"
	OpRect  OpKind = "rect"
	OpText  OpKind = "text"
)

// Op is one recorded drawing primitive. Field names are kept short because
// a frame is sent to browsers sixty times a second.
type Op struct {
	Kind   OpKind    `json:"k"`
	Points []Point   `json:"p,omitempty"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	W      float64   `json:"w,omitempty"`
	H      float64   `json:"h,omitempty"`
	R      float64   `json:"r,omitempty"`
	Color  string    `json:"c,omitempty"`
	Alpha  float64   `json:"a,omitempty"`
	Glow   float64   `json:"g,omitempty"`
	Width  float64   `json:"lw,omitempty"`
	Dash   []float64 `json:"d,omitempty"`
	Text   string    `json:"t,omitempty"`
	Size   float64   `json:"s,omitempty"`
}

// DrawList is a Surface that records primitives so they can be replayed
// elsewhere.
type DrawList struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ops    []Op    `json:"ops"`
}

func NewDrawList(width, height float64) *DrawList {
	return &DrawList{
		Width:  width,
		Height: height,
		Ops:    make([]Op, 0, 64),
	}
}

func (d *DrawList) Clear(color string) {
	d.Ops = append(d.Ops, Op{Kind: OpClear, Color: color})
}

func (d *DrawList) Line(from, to Point, s Stroke) {
	d.Ops = append(d.Ops, Op{
		Kind:   OpLine,
		Points: []Point{from, to},
		Color:  s.Color,
		Width:  s.Width,
		Dash:   s.Dash,
	})
}

func (d *DrawList) Arc(center Point, radius float64, f Fill) {
	d.Ops = append(d.Ops, Op{
		Kind:  OpArc,
		X:     center.X,
		Y:     center.Y,
		R:     radius,
		Color: f.Color,
		Alpha: f.Alpha,
		Glow:  f.Glow,
	})
}

func (d *DrawList) Poly(points []Point, f Fill) {
	d.Ops = append(d.Ops, Op{
		Kind:   OpPoly,
		Points: points,
		Color:  f.Color,
		Alpha:  f.Alpha,
		Glow:   f.Glow,
	})
}

func (d *DrawList) Rect(x, y, w, h float64, f Fill) {
	d.Ops = append(d.Ops, Op{
		Kind:  OpRect,
		X:     x,
		Y:     y,
		W:     w,
		H:     h,
		Color: f.Color,
		Alpha: f.Alpha,
		Glow:  f.Glow,
	})
}

func (d *DrawList) Text(at Point, text string, size float64, f Fill) {
	d.Ops = append(d.Ops, Op{
		Kind:  OpText,
		X:     at.X,
		Y:     at.Y,
		Text:  text,
		Size:  size,
		Color: f.Color,
		Alpha: f.Alpha,
		Glow:  f.Glow,
	})
}

// Replay draws the recorded ops onto s in order.
func (d *DrawList) Replay(s Surface) {
	for _, op := range d.Ops {
		fill := Fill{Color: op.Color, Alpha: op.Alpha, Glow: op.Glow}

		switch op.Kind {
		case OpClear:
			s.Clear(op.Color)
		case OpLine:
			if len(op.Points) == 2 {
				s.Line(op.Points[0], op.Points[1], Stroke{Color: op.Color, Width: op.Width, Dash: op.Dash})
			}
		case OpArc:
			s.Arc(Point{op.X, op.Y}, op.R, fill)
		case OpPoly:
			s.Poly(op.Points, fill)
		case OpRect:
			s.Rect(op.X, op.Y, op.W, op.H, fill)
		case OpText:
			s.Text(Point{op.X, op.Y}, op.Text, op.Size, fill)
		}
	}
}
