package playlist

import "github.com/samber/mo"

// ConfigSection holds presentation settings declared in a <config> element.
// Only settings that were present in the document are set, so sections can
// be layered on top of each other.
type ConfigSection struct {
	MediaDirectory          mo.Option[string]
	TitleScreenImage        mo.Option[string]
	EnableControls          mo.Option[bool]
	ControlsDisplayMethod   mo.Option[string]
	ShowScore               mo.Option[bool]
	MinimumSwipeVelocity    mo.Option[float64]
	MinimumSwipeTranslation mo.Option[float64]
}
