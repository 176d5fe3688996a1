// Package media defines the lifecycle contract that media backends
// implement and the registry the engine uses to construct them.
package media

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
)

// Item is a playable media backend instance.
type Item interface {
	// Play starts or restarts playback. An error means the resource could
	// not be loaded; playback of the item does not start.
	Play() error
	Pause()
	Stop()
	IsPlaying() bool
	IsPaused() bool
	IsStopped() bool
	// OnEnded registers fn to run when the item completes naturally. It
	// fires once per playthrough.
	OnEnded(fn func()) (cancel func())
}

// PlayTimer is implemented by backends that track their own play time.
// Items without it are timed by the engine from the wall clock.
type PlayTimer interface {
	PlayTime() time.Duration
}

// Env is what a factory gets to build a backend.
type Env struct {
	Scheduler      clock.Scheduler
	MediaDirectory string
}

// Factory builds the backend for one media item definition.
type Factory func(def *playlist.MediaItem, env Env) (Item, error)

// ErrUnknownType is returned when no factory is registered for a media tag.
var ErrUnknownType = errors.New("unknown media type")

// Registry maps media tag names to factories. Each engine owns its own.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for a media tag.
func (r *Registry) Register(tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = f
}

// Types returns the registered tag names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// New builds the backend for def.
func (r *Registry) New(def *playlist.MediaItem, env Env) (Item, error) {
	r.mu.RLock()
	f, ok := r.factories[def.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("media item %d: %w: %s", def.ID, ErrUnknownType, def.Type)
	}
	item, err := f(def, env)
	if err != nil {
		return nil, fmt.Errorf("media item %d (%s): %w", def.ID, def.Type, err)
	}
	if item == nil {
		return nil, fmt.Errorf("media item %d (%s): factory returned no backend", def.ID, def.Type)
	}
	return item, nil
}
