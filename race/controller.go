/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	StartX             = 50
	FinishLineFraction = 0.9
	MinSpeed           = 2
	JitterFraction     = 0.3
	TrailChance        = 0.4
	MinBaseSpeed       = 2.5
	BaseSpeedRange     = 4

	CountdownFrom     = 3
	CountdownInterval = time.Second
	SettleDelay       = 500 * time.Millisecond
	ResultsDelay      = 2 * time.Second

	MaxTrackWidth  = 1000
	MinTrackWidth  = 200
	MaxTrackHeight = 600
	LaneHeight     = 80
	viewportMargin = 40
)

// Phase is the simulation state.
type Phase int

const (
	Idle Phase = iota
	Countdown
	Racing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Racing:
		return "racing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Options configures a Controller. Scheduler is required.
type Options struct {
	Random    Random
	Scheduler Scheduler
	View      View
	Tones     ToneEmitter
	Now       func() time.Time

	// Viewport is the width available to the track, before margins.
	Viewport float64
}

// Controller owns one game: its state store, screens, particles and the
// frame loop. All methods must be called from the Scheduler's goroutine.
type Controller struct {
	state     *GameState
	screens   *Screens
	particles *Particles

	rng   Random
	sched Scheduler
	view  View
	tones ToneEmitter
	now   func() time.Time
	epoch time.Time

	viewport float64
	width    float64
	height   float64
	jitter   float64

	phase  Phase
	active bool
	run    uuid.UUID
}

func NewController(opts Options) *Controller {
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.View == nil {
		opts.View = nopView{}
	}
	if opts.Tones == nil {
		opts.Tones = silence{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Viewport <= 0 {
		opts.Viewport = MaxTrackWidth + viewportMargin
	}

	c := &Controller{
		state:     NewGameState(opts.Random),
		particles: NewParticles(opts.Random),
		rng:       opts.Random,
		sched:     opts.Scheduler,
		view:      opts.View,
		tones:     opts.Tones,
		now:       opts.Now,
		epoch:     opts.Now(),
		viewport:  opts.Viewport,
		jitter:    JitterFraction,
	}
	c.screens = NewScreens(c.view.Show)

	c.screens.Show(ScreenStart)
	c.view.Preview(c.state.Preview())

	return c
}

func (c *Controller) State() *GameState {
	return c.state
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) Screen() Screen {
	return c.screens.Active()
}

// Active reports whether the frame loop is running.
func (c *Controller) Active() bool {
	return c.active
}

// RunID identifies the current race; uuid.Nil when idle.
func (c *Controller) RunID() uuid.UUID {
	return c.run
}

func (c *Controller) Particles() *Particles {
	return c.particles
}

// TrackSize returns the surface size of the current race.
func (c *Controller) TrackSize() (width, height float64) {
	return c.width, c.height
}

// SetViewport records the width available for the track. It applies from
// the next race.
func (c *Controller) SetViewport(width float64) {
	if width > 0 {
		c.viewport = width
	}
}

// ChangePlayerCount applies a +/- press on the start screen.
func (c *Controller) ChangePlayerCount(delta int) int {
	return c.SetPlayerCount(c.state.PlayerCount + delta)
}

// SetPlayerCount clamps n into range and refreshes the preview. The count is
// frozen while a race is in progress.
func (c *Controller) SetPlayerCount(n int) int {
	if c.phase != Idle {
		return c.state.PlayerCount
	}

	count := c.state.SetPlayerCount(n)
	c.view.Preview(c.state.Preview())

	return count
}

// StartRace freezes the roster, lays out the track and starts the countdown.
func (c *Controller) StartRace() bool {
	if c.phase != Idle {
		return false
	}

	c.state.FreezeRoster()
	c.screens.Show(ScreenRace)
	c.layout()

	c.run = uuid.New()
	c.phase = Countdown
	c.particles.Clear()

	c.view.Countdown("")
	c.publish()
	c.countdown(c.run, CountdownFrom)

	return true
}

// Restart abandons the current race and starts a new one with the same roster.
func (c *Controller) Restart() bool {
	c.Reset()

	return c.StartRace()
}

// Home abandons the current race and returns to the start screen with a
// fresh set of preview names.
func (c *Controller) Home() {
	c.Reset()
	c.screens.Show(ScreenStart)
	c.state.RegeneratePreview()
	c.view.Preview(c.state.Preview())
}

// Reset stops the frame loop and clears the race. Callbacks already
// scheduled for the abandoned race become no-ops.
func (c *Controller) Reset() {
	c.active = false
	c.run = uuid.Nil
	c.phase = Idle
	c.state.Reset()
	c.particles.Clear()
}

func (c *Controller) layout() {
	c.width = math.Max(MinTrackWidth, math.Min(MaxTrackWidth, c.viewport-viewportMargin))
	c.height = math.Min(MaxTrackHeight, float64(c.state.PlayerCount*LaneHeight))

	laneHeight := c.height / float64(c.state.PlayerCount)

	for i := range c.state.Players {
		r := &c.state.Players[i]
		r.X = StartX
		r.Y = laneHeight*float64(i) + laneHeight/2
		r.BaseSpeed = c.rng.Float64()*BaseSpeedRange + MinBaseSpeed
		r.Speed = 0
	}
}

func (c *Controller) current(run uuid.UUID) bool {
	return run != uuid.Nil && run == c.run
}

func (c *Controller) after(run uuid.UUID, d time.Duration, fn func()) {
	c.sched.AfterFunc(d, func() {
		if !c.current(run) {
			return
		}
		fn()
	})
}

func (c *Controller) countdown(run uuid.UUID, count int) {
	c.after(run, CountdownInterval, func() {
		if count > 0 {
			c.view.Countdown(strconv.Itoa(count))
			c.tones.Emit(TickTone)
			c.countdown(run, count-1)
			return
		}

		c.view.Countdown("GO!")
		c.tones.Emit(GoTone)

		c.after(run, SettleDelay, func() {
			c.view.Countdown("")
			c.startAnimation(run)
		})
	})
}

func (c *Controller) startAnimation(run uuid.UUID) {
	c.active = true
	c.phase = Racing
	c.state.RaceFinished = false
	c.state.FinishOrder = nil
	c.particles.Clear()

	c.requestFrame(run)
}

func (c *Controller) requestFrame(run uuid.UUID) {
	c.sched.RequestFrame(func() {
		c.frame(run)
	})
}

func (c *Controller) frame(run uuid.UUID) {
	if !c.active || !c.current(run) {
		return
	}

	c.particles.Update()

	finishX := c.width * FinishLineFraction
	allFinished := true

	for i := range c.state.Players {
		r := &c.state.Players[i]
		if r.Finished {
			continue
		}

		variation := r.BaseSpeed * c.jitter * (c.rng.Float64() - 0.5)
		r.Speed = math.Max(MinSpeed, r.BaseSpeed+variation)
		r.X += r.Speed

		if c.rng.Float64() < TrailChance {
			c.particles.Trail(r.X, r.Y, r.Color)
		}

		if r.X >= finishX {
			if _, ok := c.state.RecordFinish(r); ok {
				c.particles.Firework(finishX, r.Y, r.Color)
				c.tones.Emit(GoTone)
			}
		}

		if !r.Finished {
			allFinished = false
		}
	}

	c.publish()

	if allFinished {
		c.active = false
		c.phase = Finished
		c.after(run, ResultsDelay, func() {
			c.showResults(run)
		})
		return
	}

	c.requestFrame(run)
}

// Scene captures the current frame for the renderer.
func (c *Controller) Scene() Scene {
	return Scene{
		Width:     c.width,
		Height:    c.height,
		Lanes:     len(c.state.Players),
		Racers:    c.state.Players,
		Particles: c.particles.Live(),
		Time:      c.now().Sub(c.epoch).Seconds(),
	}
}

func (c *Controller) publish() {
	frame := NewDrawList(c.width, c.height)
	Render(c.Scene(), frame)
	c.view.Frame(frame)
}

func (c *Controller) showResults(run uuid.UUID) {
	c.screens.Show(ScreenResult)

	for _, entry := range ResultEntries(c.state.FinishOrder) {
		c.after(run, time.Duration(entry.Index)*RevealStagger, func() {
			c.view.Reveal(entry)
			c.tones.Emit(revealTone(entry.Index))
		})
	}
}
