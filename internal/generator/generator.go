package generator

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces a new value of type T on every call.
// The player uses it for event ids and the handlers for flow instance ids.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces random UUIDv4 strings. Event ids outlive the bot
// process in the event stream, so they must not repeat across restarts.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// Sequence produces Prefix-1, Prefix-2, ... and is safe for concurrent use.
type Sequence struct {
	Prefix string

	n atomic.Uint64
}

func (s *Sequence) Next() (string, error) {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1)), nil
}

var _ Generator[string] = &Sequence{}
