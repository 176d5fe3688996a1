package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

func init() {
	simulateCmd.Flags().Duration("duration", 10*time.Minute, "Maximum simulated time")
	simulateCmd.Flags().Duration("step", 100*time.Millisecond, "Clock advance per step")
	simulateCmd.Flags().StringArray("at", nil, `Scripted input "<offset>=<action>[:<arg>]", e.g. "12s=swipe:left", "3s=click", "8s=answer:b"`)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a playlist headlessly on a simulated clock and print the event journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		cfg, _, err := loadEngineConfig(fs)
		if err != nil {
			return err
		}
		setupLogging(cfg.Logging.Level, cfg.Logging.Format)

		s, err := loadShow(fs, cfg)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetStringArray("at")
		inputs, err := parseInputs(raw)
		if err != nil {
			return err
		}
		duration, _ := cmd.Flags().GetDuration("duration")
		step, _ := cmd.Flags().GetDuration("step")

		elapsed, err := simulate(s, inputs, duration, step, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "simulation finished after %s\n", elapsed)
		return nil
	},
}

// scriptedInput is one --at entry.
type scriptedInput struct {
	At     time.Duration
	Action string
	Arg    string
}

func parseInputs(raw []string) ([]scriptedInput, error) {
	out := make([]scriptedInput, 0, len(raw))
	for _, r := range raw {
		offset, action, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("input %q: expected <offset>=<action>", r)
		}
		at, err := time.ParseDuration(offset)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", r, err)
		}
		name, arg, _ := strings.Cut(action, ":")
		switch name {
		case "play", "pause", "resume", "stop", "back", "activity", "click", "close_frame":
		case "goto", "answer", "swipe":
			if arg == "" {
				return nil, fmt.Errorf("input %q: %s needs an argument", r, name)
			}
		default:
			return nil, fmt.Errorf("input %q: unknown action %q", r, name)
		}
		out = append(out, scriptedInput{At: at, Action: name, Arg: arg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out, nil
}

// command turns a scripted input into a player command. Inputs that need
// a view id pick the first one currently shown.
func (in scriptedInput) command(st orchestrator.Status, pres float64) (orchestrator.Command, error) {
	cmd := orchestrator.Command{Action: in.Action}
	switch in.Action {
	case "goto":
		cmd.Subject = in.Arg
	case "answer":
		cmd.Option = in.Arg
	case "click":
		cmd.ViewID = in.Arg
		if cmd.ViewID == "" {
			if len(st.Overlays) == 0 {
				return cmd, fmt.Errorf("no overlay to click")
			}
			cmd.ViewID = st.Overlays[0]
		}
	case "close_frame":
		cmd.ViewID = in.Arg
		if cmd.ViewID == "" {
			if len(st.Frames) == 0 {
				return cmd, fmt.Errorf("no frame to close")
			}
			cmd.ViewID = st.Frames[0]
		}
	case "swipe":
		g, err := gestureFor(in.Arg, pres)
		if err != nil {
			return cmd, err
		}
		cmd.Gesture = &g
	}
	return cmd, nil
}

// gestureFor builds a completed gesture comfortably past the thresholds.
func gestureFor(direction string, translation float64) (orchestrator.Gesture, error) {
	d := 2*translation + 1
	g := orchestrator.Gesture{Velocity: 1, Final: true}
	switch strings.TrimPrefix(direction, "swipe") {
	case "left":
		g.DX = -d
	case "right":
		g.DX = d
	case "up":
		g.DY = -d
	case "down":
		g.DY = d
	default:
		return g, fmt.Errorf("unknown swipe direction %q", direction)
	}
	return g, nil
}

// simulate plays s on a manual clock until the presentation ends, the
// player stops or maxDuration passes. Every journal event is written to
// out as a JSON line stamped with its simulated offset.
func simulate(s *show, inputs []scriptedInput, maxDuration, step time.Duration, out io.Writer) (time.Duration, error) {
	if step <= 0 {
		step = 100 * time.Millisecond
	}
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := clock.NewManual(start)

	prev := events.Journal()
	events.SetJournal(&printJournal{out: out, sched: sched, start: start})
	defer events.SetJournal(prev)

	player, err := orchestrator.NewPlayer(s.doc, orchestrator.Options{
		Scheduler:      sched,
		Registry:       s.registry,
		Surface:        view.JournalSurface{},
		Presentation:   s.presentation,
		TickInterval:   s.cfg.TickInterval(),
		AnswerFeedback: s.cfg.AnswerFeedback(),
		QuestionFade:   s.cfg.QuestionFade(),
	})
	if err != nil {
		return 0, err
	}

	ended := false
	player.Events().Once(orchestrator.TopicPlayerEnd, func(any) { ended = true })

	player.Play()
	sched.Flush()

	elapsed := time.Duration(0)
	for elapsed < maxDuration && !ended && player.State() != orchestrator.StateStopped {
		for len(inputs) > 0 && inputs[0].At <= elapsed {
			in := inputs[0]
			inputs = inputs[1:]
			cmd, err := in.command(player.Status(), s.presentation.MinimumSwipeTranslation)
			if err == nil {
				_, err = player.Execute(cmd)
			}
			if err != nil {
				events.Emit("warn", "remote.error", err.Error(), map[string]interface{}{
					"source": "simulate",
					"action": in.Action,
				})
			}
			sched.Flush()
		}
		sched.Advance(step)
		elapsed += step
	}
	return elapsed, nil
}

// printJournal writes events as JSON lines with simulated offsets.
type printJournal struct {
	out   io.Writer
	sched clock.Scheduler
	start time.Time
}

type printedEvent struct {
	At     string                 `json:"at"`
	Level  string                 `json:"level"`
	Event  string                 `json:"event"`
	Msg    string                 `json:"msg,omitempty"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

func (j *printJournal) Append(_ time.Time, level, event, msg string, fields map[string]interface{}, _ string) error {
	b, err := json.Marshal(printedEvent{
		At:     j.sched.Now().Sub(j.start).String(),
		Level:  level,
		Event:  event,
		Msg:    msg,
		Fields: fields,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(j.out, string(b))
	return err
}

func (j *printJournal) Query(int) ([]storage.EventRow, error) { return nil, nil }

func (j *printJournal) Close() error { return nil }
