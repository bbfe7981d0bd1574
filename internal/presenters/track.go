package presenters

import (
	"fmt"
	"strings"

	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
)

const NothingPlaying = "Nothing is playing right now."

// NowPlayingContent describes the current track for the track command.
func NowPlayingContent(status *player.Status) string {
	if status == nil {
		return NothingPlaying
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s](%s)", status.Metadata.Title, status.Metadata.URL)
	fmt.Fprintf(&b, "\nVolume: %d", history.VolumePercent(status.Volume))
	fmt.Fprintf(&b, "\nPosition: %s", media.FormatDuration(status.Position))
	if d := status.Metadata.Duration; d != nil {
		fmt.Fprintf(&b, " / %s", media.FormatDuration(*d))
	}
	if status.Loops > 0 {
		fmt.Fprintf(&b, "\nPlays left: %d", status.Loops)
	}
	return b.String()
}

func VolumeContent(meta media.Metadata, volume float32) string {
	return fmt.Sprintf("Volume of %s set to %d", meta.Title, history.VolumePercent(volume))
}
