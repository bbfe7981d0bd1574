package opus

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	SampleRate = 48000
	Channels   = 2
	// FrameSize is the number of samples per channel in one 20 ms frame.
	FrameSize = 960

	frameBytes = FrameSize * Channels * 4
)

// FrameReader reads 20 ms frames of interleaved f32le PCM from an io.Reader.
type FrameReader struct {
	r   io.Reader
	buf []byte
}

// NewFrameReader returns a new FrameReader that reads from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, buf: make([]byte, frameBytes)}
}

// ReadFrame reads the next frame into pcm, which must hold FrameSize*Channels
// samples. A short final frame is padded with silence.
// Returns io.EOF when there are no more frames.
func (f *FrameReader) ReadFrame(pcm []float32) error {
	n, err := io.ReadFull(f.r, f.buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}

	for i := range pcm {
		off := i * 4
		if off+4 > n {
			pcm[i] = 0
			continue
		}
		pcm[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.buf[off:]))
	}
	return nil
}
