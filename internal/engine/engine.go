// Package engine owns the engine loop and serialises every external
// command onto it.
package engine

import (
	"context"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/idle"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
)

// Engine runs commands from the HTTP API and MQTT on the loop that owns
// the player.
type Engine struct {
	loop   *clock.Loop
	player *orchestrator.Player
	idle   *idle.Tracker
}

// New wires an engine. tracker may be nil when idle tracking is disabled.
func New(loop *clock.Loop, player *orchestrator.Player, tracker *idle.Tracker) *Engine {
	return &Engine{loop: loop, player: player, idle: tracker}
}

// Execute runs cmd on the loop and waits for the result. Audience input
// counts as activity even when the player rejects it.
func (e *Engine) Execute(ctx context.Context, cmd orchestrator.Command) (interface{}, error) {
	var (
		result  interface{}
		execErr error
	)
	err := e.loop.Do(ctx, func() {
		if cmd.IsInput() && e.idle != nil {
			e.idle.Activity()
		}
		result, execErr = e.player.Execute(cmd)
	})
	if err != nil {
		return nil, err
	}
	return result, execErr
}

// Status returns a snapshot of the player taken on the loop.
func (e *Engine) Status(ctx context.Context) (orchestrator.Status, error) {
	var st orchestrator.Status
	err := e.loop.Do(ctx, func() {
		st = e.player.Status()
	})
	return st, err
}

// Do runs fn on the loop with access to the player.
func (e *Engine) Do(ctx context.Context, fn func(p *orchestrator.Player)) error {
	return e.loop.Do(ctx, func() { fn(e.player) })
}
