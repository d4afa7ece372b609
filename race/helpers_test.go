package race

import (
	"math/rand/v2"
	"sort"
	"testing"
	"time"
)

// fakeScheduler runs frames and timers only when told to.
type fakeScheduler struct {
	now    time.Duration
	frames []func()
	timers []fakeTimer
	seq    int
}

type fakeTimer struct {
	at  time.Duration
	seq int
	fn  func()
}

func (s *fakeScheduler) RequestFrame(fn func()) {
	s.frames = append(s.frames, fn)
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) {
	s.seq++
	s.timers = append(s.timers, fakeTimer{at: s.now + d, seq: s.seq, fn: fn})
}

// Step runs the frame callbacks queued so far.
func (s *fakeScheduler) Step() int {
	frames := s.frames
	s.frames = nil

	for _, fn := range frames {
		fn()
	}

	return len(frames)
}

// Advance moves the clock forward by d, firing due timers in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d

	for {
		sort.SliceStable(s.timers, func(i, j int) bool {
			if s.timers[i].at == s.timers[j].at {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].at < s.timers[j].at
		})

		if len(s.timers) == 0 || s.timers[0].at > target {
			break
		}

		next := s.timers[0]
		s.timers = s.timers[1:]
		s.now = next.at
		next.fn()
	}

	s.now = target
}

type recordingView struct {
	screens    []Screen
	previews   []PreviewView
	countdowns []string
	frames     []*DrawList
	reveals    []ResultEntry
}

func (v *recordingView) Show(s Screen)         { v.screens = append(v.screens, s) }
func (v *recordingView) Preview(p PreviewView) { v.previews = append(v.previews, p) }
func (v *recordingView) Countdown(t string)    { v.countdowns = append(v.countdowns, t) }
func (v *recordingView) Frame(f *DrawList)     { v.frames = append(v.frames, f) }
func (v *recordingView) Reveal(e ResultEntry)  { v.reveals = append(v.reveals, e) }

type toneLog []Tone

func (l *toneLog) Emit(t Tone) { *l = append(*l, t) }

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type harness struct {
	c     *Controller
	sched *fakeScheduler
	view  *recordingView
	tones *toneLog
}

func newHarness(t *testing.T, seed uint64) *harness {
	t.Helper()

	h := &harness{
		sched: &fakeScheduler{},
		view:  &recordingView{},
		tones: &toneLog{},
	}
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	h.c = NewController(Options{
		Random:    newTestRand(seed),
		Scheduler: h.sched,
		View:      h.view,
		Tones:     h.tones,
		Now:       func() time.Time { return fixed },
		Viewport:  1040,
	})

	return h
}

// toRacing walks the countdown until the first frame is queued.
func (h *harness) toRacing(t *testing.T) {
	t.Helper()

	h.sched.Advance(CountdownFrom*CountdownInterval + CountdownInterval + SettleDelay)
	if h.c.Phase() != Racing {
		t.Fatalf("expected racing after countdown, got %v", h.c.Phase())
	}
}

// runToFinish steps frames until nothing more is requested.
func (h *harness) runToFinish(t *testing.T) int {
	t.Helper()

	frames := 0
	for h.sched.Step() > 0 {
		frames++
		if frames > 10000 {
			t.Fatalf("race did not finish after %d frames", frames)
		}
	}

	return frames
}

// countOps returns how many ops of kind k d recorded.
func countOps(d *DrawList, k OpKind) int {
	n := 0
	for _, op := range d.Ops {
		if op.Kind == k {
			n++
		}
	}

	return n
}
