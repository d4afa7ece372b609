/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Seednode/ghostrace/race"
)

// cellWidth is how many track units one terminal column stands for when
// sizing the track from the terminal width.
const cellWidth = 10

// Game runs a race controller against a terminal.
type Game struct {
	screen tcell.Screen
	view   *View
	loop   *race.Loop
	ctrl   *race.Controller
	inbox  chan func()
}

// NewGame wires a controller to screen. The screen must already be
// initialized. opts.View, opts.Scheduler and opts.Viewport are set here.
func NewGame(screen tcell.Screen, opts race.Options) *Game {
	g := &Game{
		screen: screen,
		view:   NewView(screen),
		loop:   race.NewLoop(),
		inbox:  make(chan func(), 16),
	}

	w, _ := screen.Size()
	opts.View = g.view
	opts.Scheduler = g.loop
	opts.Viewport = float64(w * cellWidth)

	g.ctrl = race.NewController(opts)

	return g
}

func (g *Game) Controller() *race.Controller {
	return g.ctrl
}

// Run drives the game until ctx is done or the player quits.
func (g *Game) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.pollEvents(ctx, cancel)

	err := g.loop.Run(ctx, time.Second/time.Duration(fps), g.inbox)
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (g *Game) pollEvents(ctx context.Context, quit context.CancelFunc) {
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if Quits(ev) {
				quit()
				return
			}
			g.post(ctx, func() { g.HandleKey(ev) })
		case *tcell.EventResize:
			g.post(ctx, func() {
				w, _ := g.screen.Size()
				g.ctrl.SetViewport(float64(w * cellWidth))
				g.screen.Sync()
				g.view.Draw()
			})
		}
	}
}

func (g *Game) post(ctx context.Context, fn func()) {
	select {
	case g.inbox <- fn:
	case <-ctx.Done():
	}
}

// Quits reports whether ev asks to leave the game.
func Quits(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}

	return false
}

// HandleKey maps a key press onto the game's buttons. It must run on the
// loop goroutine.
func (g *Game) HandleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		if g.ctrl.Screen() == race.ScreenStart {
			g.ctrl.StartRace()
		}
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case '+', '=':
		g.ctrl.ChangePlayerCount(1)
	case '-', '_':
		g.ctrl.ChangePlayerCount(-1)
	case 'r':
		if g.ctrl.Screen() != race.ScreenStart {
			g.ctrl.Restart()
		}
	case 'h':
		g.ctrl.Home()
	}
}
