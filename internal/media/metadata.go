package media

import (
	"fmt"
	"time"
)

// MaxRepeatDuration is the longest item that may be played more than once.
const MaxRepeatDuration = 600 * time.Second

// Metadata describes a resolved remote media item.
// It is produced by the provider clients only and treated as immutable.
type Metadata struct {
	ID           string
	Title        string
	URL          string
	ThumbnailURL string
	UploadedBy   string
	Duration     *time.Duration
	Kind         Kind
}

// HasThumbnail reports whether the provider supplied an artwork URL.
func (m Metadata) HasThumbnail() bool {
	return m.ThumbnailURL != ""
}

// Repeatable reports whether loop playback is allowed for this item:
// the duration must be known and no longer than MaxRepeatDuration.
func (m Metadata) Repeatable() bool {
	return m.Duration != nil && *m.Duration <= MaxRepeatDuration
}

// FormatDuration renders d as "1h 2m 3s", dropping zero components.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total <= 0 {
		return "0s"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var out string
	if hours > 0 {
		out += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%dm", minutes)
	}
	if seconds > 0 {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%ds", seconds)
	}
	return out
}
