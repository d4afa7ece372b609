/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import "time"

// Tone is a single square-wave beep.
type Tone struct {
	Frequency float64
	Duration  time.Duration
}

const toneDuration = 100 * time.Millisecond

var (
	TickTone = Tone{Frequency: 600, Duration: toneDuration}
	GoTone   = Tone{Frequency: 800, Duration: toneDuration}
)

// ToneEmitter plays tones fire-and-forget.
type ToneEmitter interface {
	Emit(t Tone)
}

// ToneFunc adapts a function to ToneEmitter.
type ToneFunc func(Tone)

func (f ToneFunc) Emit(t Tone) {
	f(t)
}

type silence struct{}

func (silence) Emit(Tone) {}
