/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tone

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/Seednode/ghostrace/race"
)

// Speaker plays tones on the local audio device.
type Speaker struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

func NewSpeaker(volume float64) *Speaker {
	return &Speaker{
		mixer:  &beep.Mixer{},
		volume: volume,
	}
}

// Initialize opens the audio device.
func (s *Speaker) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(s.mixer)
	s.initialized = true

	return nil
}

// Emit queues t on the mixer. Tones are dropped until Initialize succeeds.
func (s *Speaker) Emit(t race.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Lock()
	s.mixer.Add(withVolume(Stream(t, SampleRate), s.volume))
	speaker.Unlock()
}

// Close stops playback.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	s.initialized = false
}
