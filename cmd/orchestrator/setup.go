package main

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/AaronLay10/SentientPlayer/internal/config"
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/media"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
	"github.com/AaronLay10/SentientPlayer/internal/storage/postgres"
	"github.com/AaronLay10/SentientPlayer/internal/storage/sqlite"
)

// show is a loaded playlist with its resolved settings.
type show struct {
	cfg          *config.EngineConfig
	doc          *playlist.Document
	presentation config.Presentation
	registry     *media.Registry
	warnings     []playlist.Warning
}

// loadEngineConfig reads engine.yaml when one is given and applies the
// command-line overrides.
func loadEngineConfig(fs afero.Fs) (*config.EngineConfig, string, error) {
	cfg := config.Default()
	path := viper.GetString(keyConfig)
	if path != "" {
		loaded, err := config.Load(fs, path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}
	if id := viper.GetString(keyShowID); id != "" {
		cfg.Show.ID = id
	}
	if p := viper.GetString(keyPlaylist); p != "" {
		cfg.Show.Playlist = p
	} else if cfg.Show.Playlist != "" && path != "" {
		cfg.Show.Playlist = relativeTo(path, cfg.Show.Playlist)
	}
	if p := viper.GetString(keyXMLConf); p != "" {
		cfg.Show.Config = p
	} else if cfg.Show.Config != "" && path != "" {
		cfg.Show.Config = relativeTo(path, cfg.Show.Config)
	}
	return cfg, path, nil
}

// relativeTo resolves target against the directory of the file at base.
func relativeTo(base, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(base), target)
}

// loadShow parses the playlist and merges presentation settings:
// defaults, engine.yaml, the standalone XML config, then the playlist's
// own <config>.
func loadShow(fs afero.Fs, cfg *config.EngineConfig) (*show, error) {
	if cfg.Show.Playlist == "" {
		return nil, fmt.Errorf("no playlist given (use --playlist or show.playlist)")
	}

	registry := media.SimulatedRegistry(cfg.SimulatedClipLength())
	res, err := playlist.LoadFile(fs, cfg.Show.Playlist, playlist.ParseOptions{MediaTypes: registry.Types()})
	if err != nil {
		return nil, err
	}

	var standalone *playlist.ConfigSection
	if cfg.Show.Config != "" {
		section, warnings, err := playlist.LoadConfigFile(fs, cfg.Show.Config)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		standalone = section
	}

	return &show{
		cfg:          cfg,
		doc:          res.Document,
		presentation: config.ResolvePresentation(cfg.Presentation.Section(), standalone, res.Document.Config),
		registry:     registry,
		warnings:     res.Warnings,
	}, nil
}

// openJournal opens the configured store and installs it as the event
// journal. It returns nil when journaling is disabled.
func openJournal(cfg *config.EngineConfig) (storage.Journal, error) {
	var (
		j   storage.Journal
		err error
	)
	switch cfg.Journal.Driver {
	case "postgres":
		j, err = postgres.New(cfg.ShowID())
	case "sqlite":
		j, err = sqlite.Open(cfg.Journal.SQLitePath, cfg.ShowID())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", cfg.Journal.Driver, err)
	}
	events.SetJournal(j)
	log.WithField("driver", cfg.Journal.Driver).Info("journal opened")
	return j, nil
}
