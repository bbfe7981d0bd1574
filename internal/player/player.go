// Package player runs play requests against the shared voice session.
//
// A play walks a fixed sequence of states:
//
//	resolving -> volume -> ensure cached -> decoding -> attempting(n) -> playing
//
// and any state may move to failed. Decoding and attempting loop on each
// other until the track reports that it is playing or MaxAttempts is used up.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/events"
	"github.com/glizzus/jukebox/internal/generator"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/track"
	"github.com/glizzus/jukebox/internal/transcode"
	"github.com/glizzus/jukebox/internal/voice"
)

const (
	DefaultVolume      float32 = 0.05
	DefaultMaxAttempts         = 4
)

type Deps struct {
	Joiner    voice.Joiner
	Resolver  Resolver
	History   history.Store
	Registry  *track.Registry
	Publisher events.Publisher
	IDs       generator.Generator[string]
}

type Orchestrator struct {
	deps      Deps
	guildID   string
	channelID string

	// MaxAttempts bounds decode and attach attempts per play.
	MaxAttempts int
	Clock       func() time.Time

	// mu serializes play, stop and volume changes.
	mu sync.Mutex
}

func New(guildID, channelID string, deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:        deps,
		guildID:     guildID,
		channelID:   channelID,
		MaxAttempts: DefaultMaxAttempts,
		Clock:       time.Now,
	}
}

type Request struct {
	Kind       media.Kind
	Identifier string
	// Volume overrides the volume remembered in history.
	Volume *float32
	// PlayCount is the total number of plays; more than one loops the track.
	PlayCount int
	UserID    string
}

type Result struct {
	Metadata      media.Metadata
	Volume        float32
	PrevMessageID *string
}

type state int

const (
	stateResolving state = iota
	stateVolume
	stateEnsureCached
	stateDecoding
	stateAttempting
	statePlaying
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateVolume:
		return "volume"
	case stateEnsureCached:
		return "ensure_cached"
	case stateDecoding:
		return "decoding"
	case stateAttempting:
		return "attempting"
	case statePlaying:
		return "playing"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// play is the working set of one request as it moves through the states.
type play struct {
	req Request

	conn        voice.Conn
	ref         audio.Ref
	volume      float32
	prevMessage *string
	source      Source
	mode        transcode.Mode
	handle      voice.Handle

	attempts int
	lastErr  error
	err      error
}

func (p *play) fail(err error) state {
	p.err = err
	return stateFailed
}

// Play resolves req, makes sure it is cached, and starts it on the voice
// session, replacing whatever was playing.
func (o *Orchestrator) Play(ctx context.Context, req Request) (*Result, error) {
	if req.Volume != nil && (*req.Volume < 0 || *req.Volume > 1) {
		return nil, ErrInvalidVolume
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	p := &play{req: req}
	for s := stateResolving; s != statePlaying && s != stateFailed; {
		next := o.step(ctx, s, p)
		slog.Debug("play transition", "from", s, "to", next, "attempts", p.attempts)
		s = next
	}
	if p.err != nil {
		slog.Warn("play failed", "identifier", req.Identifier, "kind", req.Kind, "error", p.err)
		return nil, p.err
	}

	return o.commit(ctx, p), nil
}

func (o *Orchestrator) step(ctx context.Context, s state, p *play) state {
	if err := ctx.Err(); err != nil {
		o.abandon(p)
		return p.fail(err)
	}

	switch s {
	case stateResolving:
		return o.resolving(ctx, p)
	case stateVolume:
		return o.determineVolume(ctx, p)
	case stateEnsureCached:
		return o.ensureCached(ctx, p)
	case stateDecoding:
		return o.decoding(ctx, p)
	case stateAttempting:
		return o.attempting(p)
	default:
		return p.fail(fmt.Errorf("unexpected play state %s", s))
	}
}

func (o *Orchestrator) resolving(ctx context.Context, p *play) state {
	conn, err := o.deps.Joiner.Join(ctx, o.guildID, o.channelID)
	if err != nil {
		return p.fail(err)
	}
	p.conn = conn

	ref, err := o.deps.Resolver.Identify(ctx, p.req.Kind, p.req.Identifier)
	if err != nil {
		return p.fail(err)
	}
	p.ref = ref
	return stateVolume
}

func (o *Orchestrator) determineVolume(ctx context.Context, p *play) state {
	switch {
	case p.req.Volume != nil:
		p.volume = *p.req.Volume
	default:
		record, err := o.deps.History.FindOne(ctx, p.ref.Kind, p.ref.ID)
		if err != nil {
			return p.fail(err)
		}
		if record != nil {
			p.volume = history.Gain(record.Volume)
			p.prevMessage = record.MessageID
		} else {
			p.volume = DefaultVolume
		}
	}

	// One track per session: whatever is attached stops before anything new is resolved.
	if cur, ok := o.deps.Registry.Current(); ok && cur.Handle != nil {
		cur.Handle.Stop()
	}
	p.conn.Stop()
	return stateEnsureCached
}

func (o *Orchestrator) ensureCached(ctx context.Context, p *play) state {
	source, err := o.deps.Resolver.Resolve(ctx, p.ref)
	if err != nil {
		return p.fail(err)
	}
	p.source = source

	p.mode = transcode.ModeStream
	if p.req.PlayCount > 1 {
		meta := source.Metadata()
		if !meta.Repeatable() {
			return p.fail(&RepeatRejectedError{Title: meta.Title, Duration: meta.Duration})
		}
		p.mode = transcode.ModeBuffer
	}
	return stateDecoding
}

func (o *Orchestrator) decoding(ctx context.Context, p *play) state {
	stream, err := p.source.Decoded(ctx, p.mode)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) || !retryable(err) {
			return p.fail(err)
		}
		// A decoder that failed to start or died still costs an attempt.
		p.attempts++
		p.lastErr = err
		if p.attempts >= o.MaxAttempts {
			return o.exhausted(p)
		}
		return stateDecoding
	}

	p.handle = p.conn.Attach(stream)
	return stateAttempting
}

func retryable(err error) bool {
	var (
		decodeErr *transcode.DecodeError
		spawnErr  *transcode.SpawnError
	)
	return errors.As(err, &decodeErr) || errors.As(err, &spawnErr)
}

func (o *Orchestrator) attempting(p *play) state {
	p.attempts++

	loops := 0
	if p.req.PlayCount > 1 {
		loops = p.req.PlayCount - 1
	}

	info, err := start(p.handle, p.volume, loops)
	if err != nil {
		p.lastErr = err
		info.State = voice.StateEnded
	}

	switch info.State {
	case voice.StatePlaying:
		return statePlaying
	case voice.StateEnded:
		// Ended before it began: decode a fresh stream and try again.
		p.handle.Stop()
		p.handle = nil
		if p.attempts >= o.MaxAttempts {
			return o.exhausted(p)
		}
		return stateDecoding
	default:
		if p.attempts >= o.MaxAttempts {
			return o.exhausted(p)
		}
		return stateAttempting
	}
}

// start applies settings, starts playback and reads the state back.
func start(h voice.Handle, volume float32, loops int) (voice.TrackInfo, error) {
	if err := h.SetVolume(volume); err != nil {
		return voice.TrackInfo{}, err
	}
	if err := h.SetLoops(loops); err != nil {
		return voice.TrackInfo{}, err
	}
	if err := h.Play(); err != nil {
		return voice.TrackInfo{}, err
	}
	return h.Info()
}

func (o *Orchestrator) exhausted(p *play) state {
	o.abandon(p)
	// Leave the session stopped rather than in an undefined state.
	p.conn.Stop()
	return p.fail(&RetryExhaustedError{Attempts: p.attempts, Err: p.lastErr})
}

// abandon releases the handle of a play that will not complete.
func (o *Orchestrator) abandon(p *play) {
	if p.handle != nil {
		p.handle.Stop()
		p.handle = nil
	}
}

func (o *Orchestrator) commit(ctx context.Context, p *play) *Result {
	meta := p.source.Metadata()

	prev, had := o.deps.Registry.Replace(track.Track{
		Metadata:    meta,
		Handle:      p.handle,
		RequestedBy: p.req.UserID,
	})
	if had && prev.Handle != nil && prev.Handle != p.handle {
		prev.Handle.Stop()
	}

	slog.Info("playing", "title", meta.Title, "url", meta.URL, "volume", p.volume, "attempts", p.attempts)

	o.publish(ctx, events.Event{
		Type:          events.TypePlay,
		Metadata:      meta,
		Volume:        p.volume,
		UserID:        p.req.UserID,
		PrevMessageID: p.prevMessage,
	})

	return &Result{Metadata: meta, Volume: p.volume, PrevMessageID: p.prevMessage}
}

// publish is best effort: playback has already happened.
func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.deps.Publisher == nil {
		return
	}
	if o.deps.IDs != nil {
		id, err := o.deps.IDs.Next()
		if err != nil {
			slog.Error("failed to generate event id", "error", err)
		}
		event.ID = id
	}
	event.OccurredAt = o.Clock()

	if err := o.deps.Publisher.Publish(ctx, event); err != nil {
		slog.Error("failed to publish event", "type", event.Type, "error", err)
	}
}

// current returns the registered track if it is still playing or paused.
func (o *Orchestrator) current() (track.Track, voice.TrackInfo, error) {
	cur, ok := o.deps.Registry.Current()
	if !ok || cur.Handle == nil {
		return track.Track{}, voice.TrackInfo{}, ErrNothingPlaying
	}
	info, err := cur.Handle.Info()
	if err != nil || (info.State != voice.StatePlaying && info.State != voice.StatePaused) {
		return track.Track{}, voice.TrackInfo{}, ErrNothingPlaying
	}
	return cur, info, nil
}

// Stop ends the current track. It reports whether anything was playing.
func (o *Orchestrator) Stop(ctx context.Context) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cur, _, err := o.current()
	if errors.Is(err, ErrNothingPlaying) {
		return false, nil
	}
	if err := cur.Handle.Stop(); err != nil {
		return false, fmt.Errorf("failed to stop track: %w", err)
	}
	o.deps.Registry.Clear()
	slog.Info("stopped", "title", cur.Metadata.Title)
	return true, nil
}

// SetVolume changes the volume of the current track and remembers it for
// the next time the same item is played.
func (o *Orchestrator) SetVolume(ctx context.Context, volume float32) (media.Metadata, error) {
	if volume < 0 || volume > 1 {
		return media.Metadata{}, ErrInvalidVolume
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	cur, _, err := o.current()
	if err != nil {
		return media.Metadata{}, err
	}
	if err := cur.Handle.SetVolume(volume); err != nil {
		if errors.Is(err, voice.ErrTrackFinished) {
			return media.Metadata{}, ErrNothingPlaying
		}
		return media.Metadata{}, err
	}

	meta := cur.Metadata
	if err := o.deps.History.UpdateVolume(ctx, meta.Kind, meta.ID, history.VolumePercent(volume)); err != nil {
		return meta, err
	}

	o.publish(ctx, events.Event{
		Type:     events.TypeVolume,
		Metadata: meta,
		Volume:   volume,
	})
	return meta, nil
}

type Status struct {
	Metadata    media.Metadata
	Volume      float32
	Position    time.Duration
	Loops       int
	RequestedBy string
}

// NowPlaying reports the current track. It only takes the registry's read lock.
func (o *Orchestrator) NowPlaying(ctx context.Context) (*Status, error) {
	cur, info, err := o.current()
	if err != nil {
		return nil, err
	}
	return &Status{
		Metadata:    cur.Metadata,
		Volume:      info.Volume,
		Position:    info.Position,
		Loops:       info.Loops,
		RequestedBy: cur.RequestedBy,
	}, nil
}

var _ io.Closer = (*Orchestrator)(nil)

// Close stops playback for shutdown.
func (o *Orchestrator) Close() error {
	_, err := o.Stop(context.Background())
	return err
}
