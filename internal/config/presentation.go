package config

import "github.com/AaronLay10/SentientPlayer/internal/playlist"

// Presentation holds the resolved presentation settings.
type Presentation struct {
	MediaDirectory          string  `json:"media_directory"`
	TitleScreenImage        string  `json:"title_screen_image"`
	EnableControls          bool    `json:"enable_controls"`
	ControlsDisplayMethod   string  `json:"controls_display_method"`
	ShowScore               bool    `json:"show_score"`
	MinimumSwipeVelocity    float64 `json:"minimum_swipe_velocity"`
	MinimumSwipeTranslation float64 `json:"minimum_swipe_translation"`
}

// DefaultPresentation returns the built-in presentation settings.
func DefaultPresentation() Presentation {
	return Presentation{
		MediaDirectory:          "",
		TitleScreenImage:        "assets/title_screen.png",
		EnableControls:          true,
		ControlsDisplayMethod:   "overlay",
		ShowScore:               false,
		MinimumSwipeVelocity:    0.10,
		MinimumSwipeTranslation: 50,
	}
}

// ResolvePresentation layers sections over the defaults. Later sections
// win, so pass them lowest precedence first: engine.yaml, the standalone
// config document, then the playlist's own <config>. Nil sections are
// skipped.
func ResolvePresentation(sections ...*playlist.ConfigSection) Presentation {
	p := DefaultPresentation()
	for _, s := range sections {
		if s == nil {
			continue
		}
		p.MediaDirectory = s.MediaDirectory.OrElse(p.MediaDirectory)
		p.TitleScreenImage = s.TitleScreenImage.OrElse(p.TitleScreenImage)
		p.EnableControls = s.EnableControls.OrElse(p.EnableControls)
		p.ControlsDisplayMethod = s.ControlsDisplayMethod.OrElse(p.ControlsDisplayMethod)
		p.ShowScore = s.ShowScore.OrElse(p.ShowScore)
		p.MinimumSwipeVelocity = s.MinimumSwipeVelocity.OrElse(p.MinimumSwipeVelocity)
		p.MinimumSwipeTranslation = s.MinimumSwipeTranslation.OrElse(p.MinimumSwipeTranslation)
	}
	return p
}
