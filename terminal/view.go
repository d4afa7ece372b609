/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package terminal draws the race in a terminal with tcell.
package terminal

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/Seednode/ghostrace/race"
)

const (
	headerRows = 2
	footerRows = 1
)

// View implements race.View on a tcell screen.
type View struct {
	screen tcell.Screen

	active    race.Screen
	preview   race.PreviewView
	countdown string
	frame     *race.DrawList
	results   []race.ResultEntry
}

func NewView(screen tcell.Screen) *View {
	return &View{screen: screen}
}

func (v *View) Show(s race.Screen) {
	v.active = s
	if s == race.ScreenResult {
		v.results = nil
	}
	v.Draw()
}

func (v *View) Preview(p race.PreviewView) {
	v.preview = p
	v.Draw()
}

func (v *View) Countdown(text string) {
	v.countdown = text
	v.Draw()
}

func (v *View) Frame(f *race.DrawList) {
	v.frame = f
	v.Draw()
}

func (v *View) Reveal(e race.ResultEntry) {
	v.results = append(v.results, e)
	v.Draw()
}

// Draw repaints the active screen.
func (v *View) Draw() {
	v.screen.Clear()

	switch v.active {
	case race.ScreenStart:
		v.drawStart()
	case race.ScreenRace:
		v.drawRace()
	case race.ScreenResult:
		v.drawResults()
	}

	v.screen.Show()
}

func (v *View) drawStart() {
	title := tcell.StyleDefault.Foreground(tcell.GetColor("#06ffa5")).Bold(true)
	plain := tcell.StyleDefault

	putString(v.screen, 2, 1, "GHOST RACE", title)
	putString(v.screen, 2, 3, fmt.Sprintf("Players: %d   (+/- to change)", v.preview.Count), plain)

	for i, p := range v.preview.Players {
		style := tcell.StyleDefault.Foreground(tcell.GetColor(p.Color.Hex()))
		putString(v.screen, 4, 5+i, fmt.Sprintf("Player %d  %s", p.Number, p.Name), style)
	}

	_, h := v.screen.Size()
	putString(v.screen, 2, h-1, "enter: start   q: quit", plain.Dim(true))
}

func (v *View) drawRace() {
	w, h := v.screen.Size()

	if v.countdown != "" {
		style := tcell.StyleDefault.Foreground(tcell.GetColor("#ffbe0b")).Bold(true)
		putString(v.screen, (w-runewidth.StringWidth(v.countdown))/2, 0, v.countdown, style)
	}

	if v.frame != nil && v.frame.Width > 0 && v.frame.Height > 0 {
		rows := h - headerRows - footerRows
		if rows > 0 {
			v.frame.Replay(newCanvas(v.screen, 0, headerRows, w, rows, v.frame.Width, v.frame.Height))
		}
	}

	putString(v.screen, 2, h-1, "r: restart   h: home   q: quit", tcell.StyleDefault.Dim(true))
}

func (v *View) drawResults() {
	title := tcell.StyleDefault.Foreground(tcell.GetColor("#ff006e")).Bold(true)
	putString(v.screen, 2, 1, "RESULTS", title)

	for i, e := range v.results {
		style := tcell.StyleDefault.Foreground(tcell.GetColor(e.Color.Hex()))
		if e.Class == "rank-1" {
			style = style.Bold(true)
		}

		putString(v.screen, 4, 3+i, fmt.Sprintf("#%d  %-10s %s", e.Rank, e.Name, e.Badge), style)
	}

	_, h := v.screen.Size()
	putString(v.screen, 2, h-1, "r: restart   h: home   q: quit", tcell.StyleDefault.Dim(true))
}

func putString(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// canvas maps track coordinates onto a block of terminal cells.
type canvas struct {
	screen tcell.Screen
	x0, y0 int
	cols   int
	rows   int
	sx, sy float64
}

func newCanvas(s tcell.Screen, x0, y0, cols, rows int, width, height float64) *canvas {
	return &canvas{
		screen: s,
		x0:     x0,
		y0:     y0,
		cols:   cols,
		rows:   rows,
		sx:     float64(cols) / width,
		sy:     float64(rows) / height,
	}
}

func (c *canvas) cell(p race.Point) (int, int, bool) {
	col := int(math.Floor(p.X * c.sx))
	row := int(math.Floor(p.Y * c.sy))

	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return 0, 0, false
	}

	return c.x0 + col, c.y0 + row, true
}

func (c *canvas) empty(x, y int) bool {
	r, _, _, _ := c.screen.GetContent(x, y)

	return r == ' ' || r == 0
}

func style(f race.Fill) tcell.Style {
	st := tcell.StyleDefault.Foreground(tcell.GetColor(f.Color))
	if f.Alpha > 0 && f.Alpha < 0.5 {
		st = st.Dim(true)
	}

	return st
}

func (c *canvas) Clear(color string) {
	st := tcell.StyleDefault.Background(tcell.GetColor(color))

	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			c.screen.SetContent(c.x0+x, c.y0+y, ' ', nil, st)
		}
	}
}

func (c *canvas) Line(from, to race.Point, s race.Stroke) {
	st := tcell.StyleDefault.Foreground(tcell.GetColor(s.Color))

	switch {
	case from.X == to.X:
		ch := '│'
		if len(s.Dash) > 0 {
			ch = '┆'
		}
		for y := from.Y; y <= to.Y; y += 1 / c.sy {
			if x, row, ok := c.cell(race.Point{X: from.X, Y: y}); ok {
				c.screen.SetContent(x, row, ch, nil, st)
			}
		}
	case from.Y == to.Y:
		for x := from.X; x <= to.X; x += 1 / c.sx {
			if col, y, ok := c.cell(race.Point{X: x, Y: from.Y}); ok && c.empty(col, y) {
				c.screen.SetContent(col, y, '─', nil, st)
			}
		}
	}
}

func (c *canvas) Arc(center race.Point, radius float64, f race.Fill) {
	x, y, ok := c.cell(center)
	if !ok {
		return
	}

	ch := '•'
	if f.Glow >= 20 {
		ch = '●'
	}
	c.screen.SetContent(x, y, ch, nil, style(f))
}

func (c *canvas) Poly(points []race.Point, f race.Fill) {
	if len(points) == 0 {
		return
	}

	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(points))

	if x, y, ok := c.cell(race.Point{X: cx / n, Y: cy / n}); ok && c.empty(x, y) {
		c.screen.SetContent(x, y, '≈', nil, style(f))
	}
}

func (c *canvas) Rect(x, y, w, h float64, f race.Fill) {
	col, row, ok := c.cell(race.Point{X: x + w/2, Y: y + h/2})
	if !ok || !c.empty(col, row) {
		return
	}

	c.screen.SetContent(col, row, '·', nil, style(f))
}

func (c *canvas) Text(at race.Point, text string, _ float64, f race.Fill) {
	x, y, ok := c.cell(at)
	if !ok {
		return
	}

	putString(c.screen, x-runewidth.StringWidth(text)/2, y, text, style(f))
}
