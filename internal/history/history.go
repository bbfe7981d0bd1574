// Package history records past plays so a replayed item keeps its volume
// and its history-channel message.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glizzus/jukebox/internal/media"
)

type Record struct {
	Title   string
	Channel string
	Kind    media.Kind
	// UID is the provider's canonical id.
	UID    string
	UserID string
	// Volume is a percentage, 0 to 100.
	Volume    int
	CreatedAt time.Time
	// MessageID references the last history-channel message for this item.
	MessageID *string
}

type Store interface {
	// FindOne returns the record for (kind, uid), or nil when there is none.
	FindOne(ctx context.Context, kind media.Kind, uid string) (*Record, error)
	// AddOrUpdate upserts on (kind, uid).
	AddOrUpdate(ctx context.Context, record Record) error
	UpdateVolume(ctx context.Context, kind media.Kind, uid string, volume int) error
	// Recent lists the latest records, newest first. A negative limit is
	// an error.
	Recent(ctx context.Context, limit int) ([]Record, error)
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", limit)
	}
	return nil
}

// VolumePercent converts a playback gain to the stored percentage.
func VolumePercent(volume float32) int {
	p := int(volume*100 + 0.5)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Gain converts a stored percentage back to a playback gain.
func Gain(percent int) float32 {
	return float32(percent) / 100
}
