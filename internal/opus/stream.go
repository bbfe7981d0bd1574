package opus

import (
	"context"
	"errors"
	"time"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// SendTimeout bounds how long a single frame may wait for the voice connection.
const SendTimeout = time.Minute

// SendFrame delivers one Opus frame to a voice connection's send channel.
// It gives up after SendTimeout or when ctx is done.
func SendFrame(ctx context.Context, out chan<- []byte, frame []byte) error {
	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()

	select {
	case out <- frame:
		return nil
	case <-timer.C:
		return ErrVoiceConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
