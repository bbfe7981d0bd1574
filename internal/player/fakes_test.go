package player_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/transcode"
	"github.com/glizzus/jukebox/internal/voice"
)

// journal records the order of session operations across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) index(entry string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, e := range j.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

type fakeHandle struct {
	name    string
	log     *journal
	states  []voice.PlayState
	polls   int
	volume  float32
	loops   int
	played  bool
	stopped bool
	src     io.ReadCloser
}

func (h *fakeHandle) SetVolume(v float32) error { h.volume = v; return nil }
func (h *fakeHandle) SetLoops(n int) error { h.loops = n; return nil }
func (h *fakeHandle) Play() error { h.played = true; return nil }

func (h *fakeHandle) Info() (voice.TrackInfo, error) {
	if h.stopped {
		return voice.TrackInfo{State: voice.StateEnded}, voice.ErrTrackFinished
	}
	i := h.polls
	if i >= len(h.states) {
		i = len(h.states) - 1
	}
	h.polls++
	info := voice.TrackInfo{State: h.states[i], Volume: h.volume, Loops: h.loops}
	if info.State == voice.StateEnded {
		return info, voice.ErrTrackFinished
	}
	return info, nil
}

func (h *fakeHandle) Stop() error {
	if !h.stopped {
		h.log.add("stop %s", h.name)
		h.stopped = true
		h.src.Close()
	}
	return nil
}

type fakeConn struct {
	log *journal
	// script gives the state sequence for the n-th attached handle.
	script  func(n int) []voice.PlayState
	handles []*fakeHandle
	stops   int
}

func (c *fakeConn) Attach(src io.ReadCloser) voice.Handle {
	n := len(c.handles)
	h := &fakeHandle{
		name:   fmt.Sprintf("h%d", n),
		log:    c.log,
		states: c.script(n),
		src:    src,
	}
	c.handles = append(c.handles, h)
	c.log.add("attach %s", h.name)
	return h
}

func (c *fakeConn) Stop() {
	c.stops++
	for _, h := range c.handles {
		h.Stop()
	}
}

type fakeJoiner struct {
	conn  *fakeConn
	joins int
	err   error
}

func (j *fakeJoiner) Join(ctx context.Context, guildID, channelID string) (voice.Conn, error) {
	j.joins++
	if j.err != nil {
		return nil, j.err
	}
	return j.conn, nil
}

type fakeSource struct {
	meta    media.Metadata
	decodes int
	modes   []transcode.Mode
	// failures is consumed one per decode before decodes succeed.
	failures []error
}

func (s *fakeSource) Metadata() media.Metadata { return s.meta }

func (s *fakeSource) Decoded(ctx context.Context, mode transcode.Mode) (io.ReadCloser, error) {
	s.decodes++
	s.modes = append(s.modes, mode)
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}
	return io.NopCloser(strings.NewReader("pcm")), nil
}

type fakeResolver struct {
	sources  map[string]*fakeSource
	resolves int
}

func (r *fakeResolver) Identify(ctx context.Context, kind media.Kind, identifier string) (audio.Ref, error) {
	return audio.Ref{Kind: kind, ID: identifier, URL: "https://example.com/" + identifier}, nil
}

func (r *fakeResolver) Resolve(ctx context.Context, ref audio.Ref) (player.Source, error) {
	r.resolves++
	src, ok := r.sources[ref.ID]
	if !ok {
		return nil, fmt.Errorf("no source %q", ref.ID)
	}
	return src, nil
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func volumePtr(v float32) *float32 { return &v }
