/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

// Color is one of the eight racer colors, indexed by player slot.
type Color int

const (
	Pink Color = iota
	Cyan
	Purple
	Green
	Yellow
	Orange
	Rose
	Blue
)

var palette = [...]string{
	Pink:   "#ff006e",
	Cyan:   "#00f5ff",
	Purple: "#8338ec",
	Green:  "#06ffa5",
	Yellow: "#ffbe0b",
	Orange: "#fb5607",
	Rose:   "#ff5d8f",
	Blue:   "#3a86ff",
}

// Hex returns the CSS hex value of c.
func (c Color) Hex() string {
	if c < 0 || int(c) >= len(palette) {
		return "#ffffff"
	}

	return palette[c]
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

var namePool = [...]string{
	"Shadow", "Phantom", "Spirit", "Specter", "Wraith", "Boo", "Casper", "Ghost",
	"Spooky", "Mystic", "Twilight", "Eclipse", "Lunar", "Stellar", "Nova", "Comet",
	"Blaze", "Flash", "Thunder", "Lightning", "Storm", "Frost", "Inferno", "Vortex",
	"Ninja", "Samurai", "Titan", "Phoenix", "Dragon", "Griffin", "Pegasus", "Legend",
}

// Random is the subset of *rand.Rand the race needs.
type Random interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// AllocateNames returns count distinct names from the name pool.
// Callers keep count within [MinPlayers, MaxPlayers].
func AllocateNames(rng Random, count int) []string {
	shuffled := namePool
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	names := make([]string, count)
	copy(names, shuffled[:count])

	return names
}

// AllocateColors returns the first count palette entries in slot order.
func AllocateColors(count int) []Color {
	colors := make([]Color, count)
	for i := range colors {
		colors[i] = Color(i)
	}

	return colors
}
