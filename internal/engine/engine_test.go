package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/idle"
	"github.com/AaronLay10/SentientPlayer/internal/media"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/view"
)

const testPlaylist = `<playlist>
  <subject id="intro">
    <media><image duration="30"/></media>
  </subject>
  <subject id="outro">
    <media><image duration="30"/></media>
  </subject>
</playlist>`

func newTestEngine(t *testing.T, withIdle bool) (*Engine, *idle.Tracker) {
	t.Helper()

	registry := media.SimulatedRegistry(10 * time.Second)
	res, err := playlist.Parse(strings.NewReader(testPlaylist), playlist.ParseOptions{MediaTypes: registry.Types()})
	require.NoError(t, err)

	loop := clock.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	player, err := orchestrator.NewPlayer(res.Document, orchestrator.Options{
		Scheduler: loop.Scheduler(),
		Registry:  registry,
		Surface:   view.NewRecorder(),
	})
	require.NoError(t, err)

	var tracker *idle.Tracker
	if withIdle {
		require.NoError(t, loop.Do(ctx, func() {
			tracker = idle.New(loop.Scheduler(), player, idle.Options{Limit: time.Hour})
		}))
	}
	return New(loop, player, tracker), tracker
}

func TestExecuteRunsOnLoop(t *testing.T) {
	e, _ := newTestEngine(t, false)
	ctx := context.Background()

	_, err := e.Execute(ctx, orchestrator.Command{Action: "play"})
	require.NoError(t, err)

	st, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatePlaying, st.State)

	_, err = e.Execute(ctx, orchestrator.Command{Action: "goto", Subject: "outro"})
	require.NoError(t, err)

	// Location changes are delivered on a later loop turn.
	assert.Eventually(t, func() bool {
		st, err := e.Status(ctx)
		return err == nil && st.Subject == "outro"
	}, time.Second, 10*time.Millisecond)
}

func TestExecuteErrors(t *testing.T) {
	e, _ := newTestEngine(t, false)
	ctx := context.Background()

	_, err := e.Execute(ctx, orchestrator.Command{Action: "explode"})
	assert.True(t, errors.Is(err, orchestrator.ErrUnknownAction))

	_, err = e.Execute(ctx, orchestrator.Command{Action: "goto", Subject: "nowhere"})
	var unknown *playlist.UnknownSubjectError
	assert.ErrorAs(t, err, &unknown)
}

func TestInputCountsAsActivity(t *testing.T) {
	e, tracker := newTestEngine(t, true)
	ctx := context.Background()

	_, err := e.Execute(ctx, orchestrator.Command{Action: "play"})
	require.NoError(t, err)

	var running bool
	require.NoError(t, e.Do(ctx, func(*orchestrator.Player) { running = tracker.Running() }))
	assert.False(t, running, "control commands are not activity")

	_, err = e.Execute(ctx, orchestrator.Command{Action: "activity"})
	require.NoError(t, err)

	require.NoError(t, e.Do(ctx, func(*orchestrator.Player) { running = tracker.Running() }))
	assert.True(t, running)
}

func TestClosedLoop(t *testing.T) {
	registry := media.SimulatedRegistry(time.Second)
	res, err := playlist.Parse(strings.NewReader(testPlaylist), playlist.ParseOptions{MediaTypes: registry.Types()})
	require.NoError(t, err)

	loop := clock.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()

	player, err := orchestrator.NewPlayer(res.Document, orchestrator.Options{
		Scheduler: loop.Scheduler(),
		Registry:  registry,
	})
	require.NoError(t, err)
	e := New(loop, player, nil)

	cancel()
	<-stopped

	_, err = e.Execute(context.Background(), orchestrator.Command{Action: "play"})
	assert.ErrorIs(t, err, clock.ErrLoopClosed)
}
