// Package events carries playback notifications from the bot to the
// history worker.
package events

import (
	"context"
	"time"

	"github.com/glizzus/jukebox/internal/media"
)

type Type string

const (
	// TypePlay is published once a track is actually playing.
	TypePlay Type = "play"
	// TypeVolume is published when the volume of a live track changes.
	TypeVolume Type = "volume"
)

type Event struct {
	ID       string         `json:"id"`
	Type     Type           `json:"type"`
	Metadata media.Metadata `json:"metadata"`
	// Volume is the playback gain, 0 to 1.
	Volume float32 `json:"volume"`
	UserID string  `json:"user_id"`
	// PrevMessageID is the history message left by the last play of this
	// item, if the volume was recovered from history.
	PrevMessageID *string   `json:"prev_message_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler consumes one event. Returning an error leaves it unacknowledged.
type Handler func(ctx context.Context, event Event) error

// ChannelPublisher delivers events in process.
type ChannelPublisher struct {
	C chan Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{C: make(chan Event, buffer)}
}

var _ Publisher = (*ChannelPublisher)(nil)

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	select {
	case p.C <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive runs handler for every event until ctx is done.
func (p *ChannelPublisher) Receive(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.C:
			if err := handler(ctx, event); err != nil {
				return err
			}
		}
	}
}
