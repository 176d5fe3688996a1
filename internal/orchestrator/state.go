package orchestrator

import (
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
)

// PlaybackState is the lifecycle state shared by the player, sequence
// player and media player.
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// Runtime events published on the player hubs.
const (
	TopicPlayerEnd       = "player_end"
	TopicVariableUpdated = "variable_updated"
	TopicSubjectPlaying  = "subject_playing"
	TopicSwipe           = "swipe"
	TopicIframeOpen      = "iframe_open"
	TopicIframeClose     = "iframe_close"

	// Internal to the player chain.
	TopicMediaPlayerEnd = "media_player_end"
	TopicSequenceEnd    = "sequence_end"
)

func emitEvent(name string, fields map[string]interface{}) {
	events.Emit("info", name, "", fields)
}

func emitError(name, msg string, fields map[string]interface{}) {
	events.Emit("error", name, msg, fields)
}

func setPlayerState(s PlaybackState) {
	metrics.SetPlayerState(string(s))
}
