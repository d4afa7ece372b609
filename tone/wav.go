/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tone

import (
	"fmt"
	"io"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/orcaman/writerseeker"

	"github.com/Seednode/ghostrace/race"
)

var format = beep.Format{
	SampleRate:  SampleRate,
	NumChannels: 1,
	Precision:   2,
}

// WAV encodes t as a mono 16-bit WAV file.
func WAV(t race.Tone) ([]byte, error) {
	ws := &writerseeker.WriterSeeker{}

	if err := wav.Encode(ws, Stream(t, SampleRate), format); err != nil {
		return nil, fmt.Errorf("encode %.0f Hz tone: %w", t.Frequency, err)
	}

	data, err := io.ReadAll(ws.Reader())
	if err != nil {
		return nil, fmt.Errorf("read %.0f Hz tone: %w", t.Frequency, err)
	}

	return data, nil
}

// Bank caches encoded tones by name.
type Bank struct {
	mu    sync.RWMutex
	tones map[string][]byte
}

// Names maps the tones the game plays to the names used in URLs.
var Names = map[string]race.Tone{
	"tick": race.TickTone,
	"go":   race.GoTone,
}

// Name returns the URL name of t, or "" if t is not a named tone.
func Name(t race.Tone) string {
	for name, known := range Names {
		if known == t {
			return name
		}
	}

	return ""
}

// NewBank encodes every named tone up front.
func NewBank() (*Bank, error) {
	b := &Bank{tones: make(map[string][]byte, len(Names))}

	for name, t := range Names {
		data, err := WAV(t)
		if err != nil {
			return nil, err
		}
		b.tones[name] = data
	}

	return b, nil
}

func (b *Bank) Get(name string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.tones[name]

	return data, ok
}
