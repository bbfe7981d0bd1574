// Package track holds the single now-playing track of the voice session.
package track

import (
	"sync"

	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/voice"
)

type Track struct {
	Metadata    media.Metadata
	Handle      voice.Handle
	RequestedBy string
}

// Registry is a one-slot store. Lookups take the read lock, replacement and
// clearing take the write lock and happen as a single swap.
type Registry struct {
	mu      sync.RWMutex
	current *Track
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Current() (Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return Track{}, false
	}
	return *r.current, true
}

// Replace installs t and returns what it superseded.
func (r *Registry) Replace(t Track) (Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current
	r.current = &t
	if prev == nil {
		return Track{}, false
	}
	return *prev, true
}

func (r *Registry) Clear() (Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current
	r.current = nil
	if prev == nil {
		return Track{}, false
	}
	return *prev, true
}
