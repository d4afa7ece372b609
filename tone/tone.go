/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tone synthesizes the game's square-wave beeps.
package tone

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/Seednode/ghostrace/race"
)

const (
	SampleRate = beep.SampleRate(44100)

	// Gain ramps exponentially from startGain to endGain over the tone.
	startGain = 0.3
	endGain   = 0.01
)

// square generates a fixed-length square wave.
type square struct {
	freq     float64
	phase    float64
	position int
	samples  int
	rate     beep.SampleRate
}

func newSquare(freq float64, samples int, rate beep.SampleRate) *square {
	return &square{
		freq:    freq,
		samples: samples,
		rate:    rate,
	}
}

func (s *square) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.samples {
			return i, i > 0
		}

		val := 1.0
		if s.phase >= 0.5 {
			val = -1.0
		}

		samples[i][0] = val
		samples[i][1] = val

		s.phase += s.freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}

	return len(samples), true
}

func (s *square) Err() error { return nil }

// decay scales a stream by an exponential ramp from startGain to endGain.
type decay struct {
	streamer beep.Streamer
	position int
	samples  int
}

// Gain returns the envelope gain at sample i of n.
func Gain(i, n int) float64 {
	if n <= 1 {
		return startGain
	}

	return startGain * math.Pow(endGain/startGain, float64(i)/float64(n-1))
}

func (d *decay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		g := Gain(d.position, d.samples)
		samples[i][0] *= g
		samples[i][1] *= g
		d.position++
	}

	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }

// Stream returns the beep for t at rate.
func Stream(t race.Tone, rate beep.SampleRate) beep.Streamer {
	n := rate.N(t.Duration)

	return &decay{
		streamer: newSquare(t.Frequency, n, rate),
		samples:  n,
	}
}

// withVolume scales s by vol (linear), silencing it at zero.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}

	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
