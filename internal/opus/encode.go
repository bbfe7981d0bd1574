package opus

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// DefaultBitrate matches what Discord voice channels carry by default.
const DefaultBitrate = 96000

// maxPacket is the largest Opus packet libopus recommends buffering.
const maxPacket = 4000

type Encoder struct {
	enc *opus.Encoder
	buf []byte
}

func NewEncoder(bitrate int) (*Encoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("unable to create opus encoder: %w", err)
	}
	if err := enc.SetBitrate(bitrate); err != nil {
		return nil, fmt.Errorf("unable to set opus bitrate: %w", err)
	}
	return &Encoder{enc: enc, buf: make([]byte, maxPacket)}, nil
}

// Encode compresses one frame of interleaved PCM. The returned slice is a
// fresh copy and may be sent on a channel.
func (e *Encoder) Encode(pcm []float32) ([]byte, error) {
	n, err := e.enc.EncodeFloat32(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("unable to encode opus frame: %w", err)
	}
	frame := make([]byte, n)
	copy(frame, e.buf[:n])
	return frame, nil
}
