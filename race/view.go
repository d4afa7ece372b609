/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

// View receives everything a rendering adapter needs to draw the game.
// Calls arrive on the goroutine that owns the Controller.
type View interface {
	Show(screen Screen)
	Preview(p PreviewView)
	Countdown(text string)
	Frame(f *DrawList)
	Reveal(e ResultEntry)
}

// PreviewView is the start screen roster.
type PreviewView struct {
	Count   int             `json:"count"`
	Players []PreviewPlayer `json:"players"`
}

type PreviewPlayer struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Color  Color  `json:"color"`
}

type nopView struct{}

func (nopView) Show(Screen)         {}
func (nopView) Preview(PreviewView) {}
func (nopView) Countdown(string)    {}
func (nopView) Frame(*DrawList)     {}
func (nopView) Reveal(ResultEntry)  {}
