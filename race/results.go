/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

import "time"

// RevealStagger separates consecutive result reveals.
const RevealStagger = 200 * time.Millisecond

// ResultEntry is one row of the results screen.
type ResultEntry struct {
	Index int    `json:"index"`
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
	Badge string `json:"badge"`
	Class string `json:"class,omitempty"`
}

// BadgeFor returns the badge glyph and style class for the entry at index
// in a finish order of length total.
func BadgeFor(index, total int) (badge, class string) {
	switch {
	case index == 0:
		return "🥇", "rank-1"
	case index == 1:
		return "🥈", "rank-2"
	case index == 2:
		return "🥉", "rank-3"
	case index == total-1:
		return "💀", "rank-last"
	default:
		return "👻", ""
	}
}

// ResultEntries builds the results screen rows for order.
func ResultEntries(order []FinishRecord) []ResultEntry {
	entries := make([]ResultEntry, len(order))

	for i, rec := range order {
		badge, class := BadgeFor(i, len(order))

		entries[i] = ResultEntry{
			Index: i,
			Rank:  rec.Rank,
			Name:  rec.Name,
			Color: rec.Color,
			Badge: badge,
			Class: class,
		}
	}

	return entries
}

// revealTone accents first place.
func revealTone(index int) Tone {
	if index == 0 {
		return GoTone
	}

	return TickTone
}
