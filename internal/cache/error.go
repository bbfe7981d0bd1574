package cache

import (
	"errors"
	"fmt"

	"github.com/glizzus/jukebox/internal/media"
)

// ErrMiss matches every *MissError.
var ErrMiss = errors.New("cache miss")

// MissError means the entry has not been downloaded yet. It is not an I/O
// failure; callers download and try again.
type MissError struct {
	Kind media.Kind
	ID   string
}

func (e *MissError) Error() string {
	return fmt.Sprintf("%s/%s is not cached", e.Kind, e.ID)
}

func (e *MissError) Is(target error) bool {
	return target == ErrMiss
}

// UserMessage is shown to whoever requested the play.
func (e *MissError) UserMessage() string {
	return "That track isn't downloaded yet. Try playing it again in a moment."
}

var _ error = (*MissError)(nil)
