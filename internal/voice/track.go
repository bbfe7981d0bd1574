package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glizzus/jukebox/internal/opus"
)

const frameDuration = 20 * time.Millisecond

// Transport is the sending half of a voice connection.
type Transport interface {
	Speaking(speaking bool) error
	Frames() chan<- []byte
}

// Track plays one PCM source on a Transport. It loops by seeking back to
// the start, so loops require a source that implements io.Seeker.
type Track struct {
	src       io.ReadCloser
	transport Transport

	volume atomic.Uint32
	loops  atomic.Int64
	frames atomic.Int64
	state  atomic.Int32

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	ctx       context.Context
	done      chan struct{}
}

func newTrack(src io.ReadCloser, transport Transport) *Track {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Track{
		src:       src,
		transport: transport,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	t.volume.Store(math.Float32bits(1))
	t.state.Store(int32(StatePending))
	return t
}

var _ Handle = (*Track)(nil)

func (t *Track) ended() bool {
	return PlayState(t.state.Load()) == StateEnded
}

func (t *Track) SetVolume(volume float32) error {
	if t.ended() {
		return ErrTrackFinished
	}
	t.volume.Store(math.Float32bits(volume))
	return nil
}

// SetLoops sets how many more times the track repeats after this pass.
func (t *Track) SetLoops(loops int) error {
	if t.ended() {
		return ErrTrackFinished
	}
	if loops > 0 {
		if _, ok := t.src.(io.Seeker); !ok {
			return errors.New("source cannot loop: not seekable")
		}
	}
	t.loops.Store(int64(loops))
	return nil
}

// Play starts the track. The first frame is read and encoded before Play
// returns, so a source that fails straight away ends the track and the
// failure is returned here instead of surfacing later in the run loop.
func (t *Track) Play() error {
	ran := false
	var err error
	t.startOnce.Do(func() {
		ran = true
		err = t.start()
	})
	if ran {
		return err
	}
	if t.ended() {
		return ErrTrackFinished
	}
	return nil
}

func (t *Track) start() error {
	if PlayState(t.state.Load()) != StatePending {
		return ErrTrackFinished
	}

	enc, err := opus.NewEncoder(opus.DefaultBitrate)
	if err != nil {
		t.abort()
		return fmt.Errorf("unable to start track: %w", err)
	}

	reader := opus.NewFrameReader(t.src)
	pcm := make([]float32, opus.FrameSize*opus.Channels)
	if err := reader.ReadFrame(pcm); err != nil {
		t.abort()
		if errors.Is(err, io.EOF) {
			return ErrTrackFinished
		}
		return fmt.Errorf("unable to read first frame: %w", err)
	}
	frame, err := t.encode(enc, pcm)
	if err != nil {
		t.abort()
		return err
	}

	// Stop may have run while the first frame was being read.
	if !t.state.CompareAndSwap(int32(StatePending), int32(StatePlaying)) {
		t.abort()
		return ErrTrackFinished
	}
	go t.run(enc, reader, pcm, frame)
	return nil
}

// abort ends a track whose run loop never started.
func (t *Track) abort() {
	t.state.Store(int32(StateEnded))
	t.src.Close()
	close(t.done)
}

func (t *Track) Info() (TrackInfo, error) {
	info := TrackInfo{
		State:    PlayState(t.state.Load()),
		Volume:   math.Float32frombits(t.volume.Load()),
		Position: time.Duration(t.frames.Load()) * frameDuration,
		Loops:    int(t.loops.Load()),
	}
	if info.State == StateEnded {
		return info, ErrTrackFinished
	}
	return info, nil
}

// Stop ends playback and releases the source. It is safe to call more than once.
func (t *Track) Stop() error {
	t.stopOnce.Do(func() {
		t.cancel()
		started := PlayState(t.state.Swap(int32(StateEnded))) != StatePending
		// Closing unblocks a run loop waiting on the decoder.
		t.src.Close()
		if started {
			<-t.done
		}
	})
	return nil
}

// Done is closed once a started track has finished playing.
func (t *Track) Done() <-chan struct{} {
	return t.done
}

func (t *Track) run(enc *opus.Encoder, reader *opus.FrameReader, pcm []float32, frame []byte) {
	defer close(t.done)
	defer t.src.Close()
	defer t.state.Store(int32(StateEnded))

	if err := t.transport.Speaking(true); err != nil {
		slog.Warn("failed to start speaking", "error", err)
	}
	defer func() {
		if err := t.transport.Speaking(false); err != nil {
			slog.Warn("failed to stop speaking", "error", err)
		}
	}()

	for {
		if err := opus.SendFrame(t.ctx, t.transport.Frames(), frame); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("unable to send frame", "error", err)
			}
			return
		}
		t.frames.Add(1)

		err := reader.ReadFrame(pcm)
		for errors.Is(err, io.EOF) {
			if !t.rewind() {
				return
			}
			reader = opus.NewFrameReader(t.src)
			err = reader.ReadFrame(pcm)
		}
		if err != nil {
			slog.Error("unable to read pcm", "error", err)
			return
		}

		if frame, err = t.encode(enc, pcm); err != nil {
			slog.Error("unable to encode frame", "error", err)
			return
		}
	}
}

// encode applies the current volume to pcm and compresses it.
func (t *Track) encode(enc *opus.Encoder, pcm []float32) ([]byte, error) {
	if gain := math.Float32frombits(t.volume.Load()); gain != 1 {
		for i := range pcm {
			pcm[i] *= gain
		}
	}
	return enc.Encode(pcm)
}

// rewind starts the next loop if one is left.
func (t *Track) rewind() bool {
	if t.loops.Load() <= 0 {
		return false
	}
	seeker, ok := t.src.(io.Seeker)
	if !ok {
		return false
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		slog.Error("unable to rewind track", "error", err)
		return false
	}
	t.loops.Add(-1)
	t.frames.Store(0)
	return true
}
