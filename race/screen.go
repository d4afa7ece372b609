/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package race

// Screen identifies one of the game's top-level screens.
type Screen string

const (
	ScreenStart  Screen = "start"
	ScreenRace   Screen = "race"
	ScreenResult Screen = "result"
)

// Screens tracks which screen is active. Exactly one known screen is active
// after the first call to Show.
type Screens struct {
	active map[Screen]bool
	onShow func(Screen)
}

func NewScreens(onShow func(Screen)) *Screens {
	return &Screens{
		active: map[Screen]bool{
			ScreenStart:  false,
			ScreenRace:   false,
			ScreenResult: false,
		},
		onShow: onShow,
	}
}

// Show activates id and deactivates every other screen. Unknown ids are ignored.
func (s *Screens) Show(id Screen) bool {
	if _, ok := s.active[id]; !ok {
		return false
	}

	for screen := range s.active {
		s.active[screen] = false
	}
	s.active[id] = true

	if s.onShow != nil {
		s.onShow(id)
	}

	return true
}

func (s *Screens) IsActive(id Screen) bool {
	return s.active[id]
}

// Active returns the active screen, or "" before the first Show.
func (s *Screens) Active() Screen {
	for screen, on := range s.active {
		if on {
			return screen
		}
	}

	return ""
}
