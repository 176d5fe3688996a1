package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

// EngineConfig is the engine.yaml document.
type EngineConfig struct {
	Version int `yaml:"version"`
	Show    struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Playlist string `yaml:"playlist"`
		Config   string `yaml:"config,omitempty" jsonschema:"description=Optional standalone XML config document"`
	} `yaml:"show"`
	Presentation PresentationOverrides `yaml:"presentation"`
	Engine       struct {
		TickIntervalMS   int     `yaml:"tick_interval_ms"`
		AnswerFeedbackMS int     `yaml:"answer_feedback_ms"`
		QuestionFadeMS   int     `yaml:"question_fade_ms"`
		SimulatedClipS   float64 `yaml:"simulated_clip_seconds"`
	} `yaml:"engine"`
	Idle    IdleConfig `yaml:"idle"`
	Network struct {
		UIPort int `yaml:"ui_port"`
	} `yaml:"network"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		ClientID    string `yaml:"client_id"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Journal struct {
		Driver       string `yaml:"driver" jsonschema:"enum=none,enum=postgres,enum=sqlite"`
		SQLitePath   string `yaml:"sqlite_path"`
		Restore      bool   `yaml:"restore"`
		RestoreLimit int    `yaml:"restore_limit"`
	} `yaml:"journal"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format" jsonschema:"enum=text,enum=json"`
	} `yaml:"logging"`
}

// PresentationOverrides holds presentation settings from engine.yaml.
// Unset fields leave the defaults alone.
type PresentationOverrides struct {
	MediaDirectory          *string  `yaml:"media_directory"`
	TitleScreenImage        *string  `yaml:"title_screen_image"`
	EnableControls          *bool    `yaml:"enable_controls"`
	ControlsDisplayMethod   *string  `yaml:"controls_display_method"`
	ShowScore               *bool    `yaml:"show_score"`
	MinimumSwipeVelocity    *float64 `yaml:"minimum_swipe_velocity"`
	MinimumSwipeTranslation *float64 `yaml:"minimum_swipe_translation"`
}

// IdleConfig configures the inactivity reset.
type IdleConfig struct {
	Enabled      bool       `yaml:"enabled"`
	LimitSeconds int        `yaml:"limit_seconds"`
	TickSeconds  int        `yaml:"tick_seconds"`
	Rules        []IdleRule `yaml:"rules"`
}

// IdleRule overrides the idle limit for subjects matching Pattern.
type IdleRule struct {
	Pattern      string `yaml:"pattern"`
	LimitSeconds int    `yaml:"limit_seconds"`
	Pause        bool   `yaml:"pause"`
}

// Section converts the overrides to a config section.
func (p PresentationOverrides) Section() *playlist.ConfigSection {
	return &playlist.ConfigSection{
		MediaDirectory:          mo.PointerToOption(p.MediaDirectory),
		TitleScreenImage:        mo.PointerToOption(p.TitleScreenImage),
		EnableControls:          mo.PointerToOption(p.EnableControls),
		ControlsDisplayMethod:   mo.PointerToOption(p.ControlsDisplayMethod),
		ShowScore:               mo.PointerToOption(p.ShowScore),
		MinimumSwipeVelocity:    mo.PointerToOption(p.MinimumSwipeVelocity),
		MinimumSwipeTranslation: mo.PointerToOption(p.MinimumSwipeTranslation),
	}
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *EngineConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// ShowID returns the show id, defaulting to "default".
func (c *EngineConfig) ShowID() string {
	if c.Show.ID == "" {
		return "default"
	}
	return c.Show.ID
}

// TickInterval returns the media player update interval (default 50ms).
func (c *EngineConfig) TickInterval() time.Duration {
	return millisOr(c.Engine.TickIntervalMS, 50)
}

// AnswerFeedback returns how long an answered question stays up before
// it fades (default 1000ms).
func (c *EngineConfig) AnswerFeedback() time.Duration {
	return millisOr(c.Engine.AnswerFeedbackMS, 1000)
}

// QuestionFade returns the question fade-out time (default 400ms).
func (c *EngineConfig) QuestionFade() time.Duration {
	return millisOr(c.Engine.QuestionFadeMS, 400)
}

// SimulatedClipLength returns the length of simulated clips (default 10s).
func (c *EngineConfig) SimulatedClipLength() time.Duration {
	if c.Engine.SimulatedClipS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Engine.SimulatedClipS * float64(time.Second))
}

// IdleLimit returns the global idle limit (default 600s).
func (c *EngineConfig) IdleLimit() time.Duration {
	if c.Idle.LimitSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.Idle.LimitSeconds) * time.Second
}

// IdleTick returns the idle check interval (default 1s).
func (c *EngineConfig) IdleTick() time.Duration {
	if c.Idle.TickSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.Idle.TickSeconds) * time.Second
}

// TopicPrefix returns the MQTT topic prefix (default "sentient/player").
func (c *EngineConfig) TopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "sentient/player"
	}
	return c.MQTT.TopicPrefix
}

// RestoreLimit returns how many journal events restore reads (default 1000).
func (c *EngineConfig) RestoreLimit() int {
	if c.Journal.RestoreLimit <= 0 {
		return 1000
	}
	return c.Journal.RestoreLimit
}

func millisOr(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// Default returns the configuration used when no engine.yaml is given.
func Default() *EngineConfig {
	cfg := &EngineConfig{Version: 1}
	cfg.Journal.Driver = "none"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Load reads and validates engine.yaml from fs.
func Load(fs afero.Fs, path string) (*EngineConfig, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported engine.yaml version: %d", cfg.Version)
	}

	switch cfg.Journal.Driver {
	case "", "none", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported journal driver: %q", cfg.Journal.Driver)
	}
	if cfg.Journal.Driver == "sqlite" && cfg.Journal.SQLitePath == "" {
		return nil, fmt.Errorf("journal driver sqlite requires sqlite_path")
	}

	return cfg, nil
}

// Schema returns the JSON schema of engine.yaml.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{FieldNameTag: "yaml", DoNotReference: true}
	s := r.Reflect(&EngineConfig{})
	s.Title = "engine.yaml"
	return json.MarshalIndent(s, "", "  ")
}
