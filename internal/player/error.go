package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/provider"
)

var (
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrInvalidVolume  = errors.New("volume must be between 0 and 1")
)

// RetryExhaustedError means every attempt to start playback ended before
// it began. Err is the cause of the last attempt, if there was one.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playback did not start after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("playback did not start after %d attempts", e.Attempts)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// RepeatRejectedError means repeat was requested for an item whose duration
// is unknown or longer than media.MaxRepeatDuration.
type RepeatRejectedError struct {
	Title    string
	Duration *time.Duration
}

func (e *RepeatRejectedError) Error() string {
	if e.Duration == nil {
		return fmt.Sprintf("cannot repeat %q: duration unknown", e.Title)
	}
	return fmt.Sprintf("cannot repeat %q: %s is longer than %s", e.Title, *e.Duration, media.MaxRepeatDuration)
}

var (
	_ error = (*RetryExhaustedError)(nil)
	_ error = (*RepeatRejectedError)(nil)
)

// UserMessage maps any error returned by the Orchestrator to a single
// message that can be shown to the requesting user.
func UserMessage(err error) string {
	var (
		repeat *RepeatRejectedError
		retry  *RetryExhaustedError
		miss   *cache.MissError
		remote *provider.Error
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &repeat):
		return fmt.Sprintf("Repeat only works for tracks of %s or less.", media.FormatDuration(media.MaxRepeatDuration))
	case errors.As(err, &miss):
		return miss.UserMessage()
	case errors.As(err, &retry):
		return "Couldn't start playback. Please try again."
	case errors.Is(err, provider.ErrAmbiguousResult), errors.Is(err, audio.ErrMustSingleVideo):
		return "Please give a link to a single video."
	case errors.As(err, &remote):
		if remote.Kind == provider.KindNotFound {
			return "Couldn't find that track."
		}
		return fmt.Sprintf("The %s request failed: %s", remote.Provider, remote.Message)
	case errors.Is(err, ErrNothingPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, ErrInvalidVolume):
		return "Volume must be between 0 and 100."
	default:
		return "Something went wrong. Please try again."
	}
}
