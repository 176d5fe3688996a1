package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AaronLay10/SentientPlayer/internal/api"
	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/engine"
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/idle"
	"github.com/AaronLay10/SentientPlayer/internal/mqtt"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
	"github.com/AaronLay10/SentientPlayer/internal/version"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

func init() {
	runCmd.Flags().Int(keyPort, 0, "HTTP port (overrides network.ui_port)")
	lo.Must0(viper.BindPFlag(keyPort, runCmd.Flags().Lookup(keyPort)))
	runCmd.Flags().Bool("no-autoplay", false, "Wait for a play command instead of starting immediately")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the presentation with the HTTP API, journal and MQTT remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		noAutoplay, _ := cmd.Flags().GetBool("no-autoplay")
		return runDaemon(ctx, afero.NewOsFs(), !noAutoplay)
	},
}

func runDaemon(ctx context.Context, fs afero.Fs, autoplay bool) error {
	cfg, _, err := loadEngineConfig(fs)
	if err != nil {
		return err
	}
	setupLogging(cfg.Logging.Level, cfg.Logging.Format)
	if port := viper.GetInt(keyPort); port > 0 {
		cfg.Network.UIPort = port
	}

	s, err := loadShow(fs, cfg)
	if err != nil {
		return err
	}

	journal, err := openJournal(cfg)
	if err != nil {
		// The presentation still runs; only persistence is lost.
		log.WithError(err).Error("journal unavailable")
	}
	if journal != nil {
		defer journal.Close()
	}

	var restored *orchestrator.RestoredState
	restoredCount := 0
	if journal != nil && cfg.Journal.Restore {
		restored, restoredCount, err = orchestrator.RestoreFromEvents(journal, cfg.RestoreLimit())
		if err != nil {
			log.WithError(err).Warn("journal restore failed")
		}
	}

	events.SetSession(uuid.NewString())
	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "player starting", map[string]interface{}{
		"service":  "orchestrator",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
		"show_id":  cfg.ShowID(),
		"session":  events.Session(),
	})

	loop := clock.NewLoop()
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	go loop.Run(loopCtx)

	player, err := orchestrator.NewPlayer(s.doc, orchestrator.Options{
		Scheduler:      loop.Scheduler(),
		Registry:       s.registry,
		Surface:        view.JournalSurface{},
		Presentation:   s.presentation,
		TickInterval:   cfg.TickInterval(),
		AnswerFeedback: cfg.AnswerFeedback(),
		QuestionFade:   cfg.QuestionFade(),
	})
	if err != nil {
		return err
	}

	var tracker *idle.Tracker
	if cfg.Idle.Enabled {
		opts, err := idle.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}
		if err := loop.Do(ctx, func() {
			tracker = idle.New(loop.Scheduler(), player, opts)
		}); err != nil {
			return err
		}
	}
	eng := engine.New(loop, player, tracker)

	if err := eng.Do(ctx, func(p *orchestrator.Player) {
		if restored != nil {
			if err := p.ApplyRestoredState(restored); err != nil {
				log.WithError(err).Warn("restored state not applied")
			} else if restored.SessionActive {
				orchestrator.EmitStartupRestore(restoredCount, cfg.ShowID(), restored.Subject)
			}
		}
		if autoplay {
			p.Play()
		}
	}); err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		startRemote(ctx, cfg.MQTT.ClientID, cfg.TopicPrefix(), cfg.ShowID(), eng)
	}

	serveErr := api.InitAuth()
	if serveErr == nil {
		api.InitTLS()
		api.InitMetrics()
		serveErr = api.NewServer(eng).ListenAndServe(ctx, cfg.UIPort())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = eng.Do(shutdownCtx, func(p *orchestrator.Player) {
		if tracker != nil {
			tracker.Close()
		}
		p.Stop()
	})
	events.Emit("info", "system.shutdown", "player stopping", nil)
	return serveErr
}

// startRemote connects the MQTT remote. The command topic is subscribed
// on every connect, so a broker that is down at startup is picked up by
// paho's retry loop and the player keeps running meanwhile.
func startRemote(ctx context.Context, clientID, prefix, showID string, eng *engine.Engine) {
	if clientID == "" {
		clientID = "sentient-player-" + showID
	}
	client := mqtt.NewClient(clientID, mqtt.StatusTopic(prefix, showID))
	remote := mqtt.NewRemote(client, eng, prefix, showID)
	remote.Bind(ctx, client)

	if err := client.Connect(); err != nil {
		log.WithField("broker", mqtt.BrokerURL()).WithError(err).Warn("mqtt: not connected yet, retrying in background")
	}
	go func() {
		remote.Run(ctx)
		client.Disconnect()
	}()
}
