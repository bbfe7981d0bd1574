// Package voice attaches decoded audio to a voice session and reports
// playback state back to the caller.
package voice

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrTrackFinished is returned by a Handle whose track has already ended.
var ErrTrackFinished = errors.New("track finished")

type PlayState int

const (
	StatePending PlayState = iota
	StatePlaying
	StatePaused
	StateEnded
)

func (s PlayState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type TrackInfo struct {
	State    PlayState
	Volume   float32
	Position time.Duration
	// Loops is the number of repeats still to come.
	Loops int
}

// Joiner joins a voice channel, reusing the session if it is already joined.
type Joiner interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Conn is one voice session.
type Conn interface {
	// Attach prepares src for playback without starting it.
	// The returned Handle owns src.
	Attach(src io.ReadCloser) Handle
	// Stop ends every track attached to the session.
	Stop()
}

// Handle controls one attached track.
type Handle interface {
	SetVolume(volume float32) error
	SetLoops(loops int) error
	Play() error
	Info() (TrackInfo, error)
	Stop() error
}
