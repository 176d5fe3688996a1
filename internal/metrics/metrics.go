package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Playback metrics
var (
	SubjectsPlayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_subjects_played_total",
			Help: "Total number of subjects started",
		},
		[]string{"subject"},
	)

	MediaStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_media_started_total",
			Help: "Total number of media items started",
		},
		[]string{"type"},
	)

	MediaEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_media_ended_total",
			Help: "Total number of media item endings by cause",
		},
		[]string{"type", "cause"}, // "ended", "duration"
	)

	MediaErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_media_errors_total",
			Help: "Total number of media backend failures",
		},
		[]string{"type", "kind"}, // "integration", "load"
	)

	PlayerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentient_player_state",
			Help: "Current top-level player state (1 for the active state)",
		},
		[]string{"state"},
	)

	Ticks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentient_player_ticks_total",
			Help: "Total number of media player update ticks",
		},
	)
)

// Interaction metrics
var (
	OverlayClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_overlay_clicks_total",
			Help: "Total number of overlay clicks by outcome",
		},
		[]string{"outcome"}, // "navigate", "frame", "none", "ignored"
	)

	QuestionsAnswered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_questions_answered_total",
			Help: "Total number of answered questions",
		},
		[]string{"correct"},
	)

	QuestionTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentient_player_question_timeouts_total",
			Help: "Total number of questions hidden by their time limit",
		},
	)

	Swipes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_swipes_total",
			Help: "Total number of completed swipe gestures",
		},
		[]string{"direction", "outcome"}, // "navigated", "cancelled"
	)

	IdleResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_idle_actions_total",
			Help: "Total number of idle timeouts by action",
		},
		[]string{"action"}, // "reset", "pause"
	)
)

// Infrastructure metrics
var (
	JournalEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_journal_events_total",
			Help: "Total number of journal events emitted",
		},
		[]string{"event"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentient_player_ws_clients",
			Help: "Number of connected websocket clients",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentient_player_broadcast_dropped_total",
			Help: "Total number of events dropped for slow live subscribers",
		},
	)

	MQTTConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentient_player_mqtt_connected",
			Help: "Whether the MQTT broker is connected (1) or not (0)",
		},
	)

	RemoteCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentient_player_remote_commands_total",
			Help: "Total number of remote control commands by source and status",
		},
		[]string{"source", "command", "status"},
	)

	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentient_player_build_info",
			Help: "Build information",
		},
		[]string{"version"},
	)
)

// SetPlayerState marks state as the active player state.
func SetPlayerState(state string) {
	for _, s := range []string{"stopped", "playing", "paused"} {
		v := 0.0
		if s == state {
			v = 1
		}
		PlayerState.WithLabelValues(s).Set(v)
	}
}
