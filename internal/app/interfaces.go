package app

import (
	"biblequest/internal/analytics"
	"biblequest/internal/audio"
	"biblequest/internal/devtools"
	"biblequest/internal/progress"
	"biblequest/internal/settings"
)

// Output is where sound cues and speech end up: a device, a terminal or
// nothing at all.
type Output interface {
	audio.Player
	audio.Speaker
}

var (
	_ settings.Reminders = reminders{}
	_ settings.Events    = (*analytics.Tracker)(nil)
	_ settings.Audio     = (*audio.Controller)(nil)
	_ devtools.Demo      = (*devtools.Manager)(nil)
	_ devtools.Store     = (*progress.Store)(nil)
)
