package race

import (
	"encoding/json"
	"testing"
)

func testScene() Scene {
	return Scene{
		Width:  1000,
		Height: 320,
		Lanes:  4,
		Racers: []Racer{
			{Name: "Boo", Color: Pink, X: 50, Y: 40, Lane: 0},
			{Name: "Nova", Color: Cyan, X: 120, Y: 120, Lane: 1},
			{Name: "Storm", Color: Purple, X: 300, Y: 200, Lane: 2},
			{Name: "Frost", Color: Green, X: 900, Y: 280, Lane: 3},
		},
		Particles: []Particle{
			{X: 10, Y: 10, Life: 20, MaxLife: 40, Size: 8, Alpha: 0.6, Color: Pink},
			{X: 20, Y: 20, Life: 30, MaxLife: 60, Size: 3, Alpha: 1, Color: Cyan},
			{X: 30, Y: 30, Life: 0, MaxLife: 60, Size: 3, Alpha: 1, Color: Cyan},
		},
		Time: 1.5,
	}
}

func TestRenderTrack(t *testing.T) {
	dl := NewDrawList(1000, 320)
	Render(testScene(), dl)

	if dl.Ops[0].Kind != OpClear || dl.Ops[0].Color != backgroundColor {
		t.Fatalf("frame does not start with a clear: %+v", dl.Ops[0])
	}

	// 3 lane separators plus start and finish lines
	if got := countOps(dl, OpLine); got != 5 {
		t.Fatalf("expected 5 lines, got %d", got)
	}

	var finish *Op
	for i := range dl.Ops {
		if dl.Ops[i].Kind == OpLine && dl.Ops[i].Color == finishLineColor {
			finish = &dl.Ops[i]
		}
	}
	if finish == nil || finish.Points[0].X != 900 || len(finish.Dash) != 2 {
		t.Fatalf("finish line missing or misplaced: %+v", finish)
	}
}

func TestRenderRacersAndParticles(t *testing.T) {
	dl := NewDrawList(1000, 320)
	Render(testScene(), dl)

	// one head per racer plus the large particle
	if got := countOps(dl, OpArc); got != 5 {
		t.Fatalf("expected 5 arcs, got %d", got)
	}
	// two eyes per racer plus the small live particle
	if got := countOps(dl, OpRect); got != 9 {
		t.Fatalf("expected 9 rects, got %d", got)
	}
	if got := countOps(dl, OpPoly); got != 4 {
		t.Fatalf("expected 4 tails, got %d", got)
	}

	var labels []string
	for _, op := range dl.Ops {
		if op.Kind == OpText {
			labels = append(labels, op.Text)
		}
	}
	if len(labels) != 4 || labels[0] != "Boo" || labels[3] != "Frost" {
		t.Fatalf("unexpected labels %q", labels)
	}

	for _, op := range dl.Ops {
		if op.Kind == OpArc && op.Glow == 20 && (op.Alpha < 0.7 || op.Alpha > 1) {
			t.Fatalf("ghost opacity %v outside [0.7, 1]", op.Alpha)
		}
	}
}

func TestRenderIsPure(t *testing.T) {
	a := NewDrawList(1000, 320)
	b := NewDrawList(1000, 320)
	Render(testScene(), a)
	Render(testScene(), b)

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(ja) != string(jb) {
		t.Fatal("rendering the same scene twice produced different frames")
	}
}

type countingSurface struct {
	calls map[OpKind]int
}

func (s *countingSurface) Clear(string)                    { s.calls[OpClear]++ }
func (s *countingSurface) Line(Point, Point, Stroke)       { s.calls[OpLine]++ }
func (s *countingSurface) Arc(Point, float64, Fill)        { s.calls[OpArc]++ }
func (s *countingSurface) Poly([]Point, Fill)              { s.calls[OpPoly]++ }
func (s *countingSurface) Rect(_, _, _, _ float64, _ Fill) { s.calls[OpRect]++ }
func (s *countingSurface) Text(Point, string, float64, Fill) {
	s.calls[OpText]++
}

func TestReplayMatchesRecording(t *testing.T) {
	dl := NewDrawList(1000, 320)
	Render(testScene(), dl)

	direct := &countingSurface{calls: make(map[OpKind]int)}
	Render(testScene(), direct)

	replayed := &countingSurface{calls: make(map[OpKind]int)}
	dl.Replay(replayed)

	for _, k := range []OpKind{OpClear, OpLine, OpArc, OpPoly, OpRect, OpText} {
		if direct.calls[k] != replayed.calls[k] || replayed.calls[k] != countOps(dl, k) {
			t.Errorf("%s: direct %d, replayed %d, recorded %d", k, direct.calls[k], replayed.calls[k], countOps(dl, k))
		}
	}
}

func TestColorMarshalsAsHex(t *testing.T) {
	b, err := json.Marshal(PreviewPlayer{Number: 1, Name: "Boo", Color: Blue})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"number":1,"name":"Boo","color":"#3a86ff"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
