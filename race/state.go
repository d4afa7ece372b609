/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

const (
	MinPlayers     = 2
	MaxPlayers     = 8
	DefaultPlayers = 4
)

// Racer is a single ghost on the track.
type Racer struct {
	Name       string
	Color      Color
	X          float64
	Y          float64
	Lane       int
	BaseSpeed  float64
	Speed      float64
	Finished   bool
	FinishRank int // zero until finished
}

// FinishRecord is appended once per racer, in the order they cross the line.
type FinishRecord struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Color Color  `json:"color"`
}

// GameState holds the roster, the finish order and the cached preview names
// for one session. It is owned by a single goroutine.
type GameState struct {
	PlayerCount  int
	Players      []Racer
	RaceFinished bool
	FinishOrder  []FinishRecord
	PreviewNames []string

	rng Random
}

func NewGameState(rng Random) *GameState {
	s := &GameState{
		PlayerCount: DefaultPlayers,
		rng:         rng,
	}
	s.RegeneratePreview()

	return s
}

func clampPlayers(n int) int {
	switch {
	case n < MinPlayers:
		return MinPlayers
	case n > MaxPlayers:
		return MaxPlayers
	default:
		return n
	}
}

// SetPlayerCount clamps n to [MinPlayers, MaxPlayers] and regenerates the
// preview names when the count changed or the cache no longer matches.
func (s *GameState) SetPlayerCount(n int) int {
	n = clampPlayers(n)

	if n != s.PlayerCount || len(s.PreviewNames) != n {
		s.PlayerCount = n
		s.RegeneratePreview()
	}

	return s.PlayerCount
}

// ChangePlayerCount applies a +/- button press.
func (s *GameState) ChangePlayerCount(delta int) int {
	return s.SetPlayerCount(s.PlayerCount + delta)
}

func (s *GameState) RegeneratePreview() []string {
	s.PreviewNames = AllocateNames(s.rng, s.PlayerCount)

	return s.PreviewNames
}

// Preview returns the start screen view of the cached names.
func (s *GameState) Preview() PreviewView {
	colors := AllocateColors(len(s.PreviewNames))

	players := make([]PreviewPlayer, len(s.PreviewNames))
	for i, name := range s.PreviewNames {
		players[i] = PreviewPlayer{
			Number: i + 1,
			Name:   name,
			Color:  colors[i],
		}
	}

	return PreviewView{
		Count:   s.PlayerCount,
		Players: players,
	}
}

// FreezeRoster builds the race roster from the preview names, drawing fresh
// names if the cache does not match the player count.
func (s *GameState) FreezeRoster() []Racer {
	names := s.PreviewNames
	if len(names) != s.PlayerCount {
		names = AllocateNames(s.rng, s.PlayerCount)
	}

	colors := AllocateColors(s.PlayerCount)

	s.Players = make([]Racer, s.PlayerCount)
	for i := range s.Players {
		s.Players[i] = Racer{
			Name:  names[i],
			Color: colors[i],
			Lane:  i,
		}
	}

	return s.Players
}

// RecordFinish marks r finished and appends it to the finish order with the
// next rank. Racers already finished, or a full finish order, are ignored.
func (s *GameState) RecordFinish(r *Racer) (FinishRecord, bool) {
	if r.Finished || len(s.FinishOrder) >= len(s.Players) {
		return FinishRecord{}, false
	}

	rec := FinishRecord{
		Name:  r.Name,
		Rank:  len(s.FinishOrder) + 1,
		Color: r.Color,
	}

	r.Finished = true
	r.FinishRank = rec.Rank
	s.FinishOrder = append(s.FinishOrder, rec)

	if len(s.FinishOrder) == len(s.Players) {
		s.RaceFinished = true
	}

	return rec, true
}

// Reset clears the roster, the finish order and the finished flag.
func (s *GameState) Reset() {
	s.Players = nil
	s.FinishOrder = nil
	s.RaceFinished = false
}
