package voice_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/glizzus/jukebox/internal/opus"
	"github.com/glizzus/jukebox/internal/voice"
)

type fakeTransport struct {
	frames chan []byte

	mu       sync.Mutex
	speaking []bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{frames: make(chan []byte, 1024)}
}

func (f *fakeTransport) Speaking(speaking bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speaking = append(f.speaking, speaking)
	return nil
}

func (f *fakeTransport) Frames() chan<- []byte {
	return f.frames
}

type seekableSource struct {
	*bytes.Reader
}

func (seekableSource) Close() error { return nil }

// silence is n frames of zeroed PCM.
func silence(n int) []byte {
	return make([]byte, n*opus.FrameSize*opus.Channels*4)
}

func waitDone(t *testing.T, h voice.Handle) {
	t.Helper()
	track := h.(*voice.Track)
	select {
	case <-track.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("track did not finish")
	}
}

func TestTrackPlaysToEnd(t *testing.T) {
	transport := newFakeTransport()
	call := voice.NewCall(transport)

	h := call.Attach(seekableSource{bytes.NewReader(silence(3))})
	if info, err := h.Info(); err != nil || info.State != voice.StatePending {
		t.Fatalf("before play: %+v, %v", info, err)
	}
	if err := h.Play(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, h)

	if len(transport.frames) != 3 {
		t.Errorf("frames sent = %d, want 3", len(transport.frames))
	}
	info, err := h.Info()
	if !errors.Is(err, voice.ErrTrackFinished) || info.State != voice.StateEnded {
		t.Errorf("after end: %+v, %v", info, err)
	}
	if err := h.Play(); !errors.Is(err, voice.ErrTrackFinished) {
		t.Errorf("replay err = %v", err)
	}
}

func TestTrackLoops(t *testing.T) {
	transport := newFakeTransport()
	h := voice.NewCall(transport).Attach(seekableSource{bytes.NewReader(silence(2))})

	if err := h.SetLoops(2); err != nil {
		t.Fatal(err)
	}
	h.Play()
	waitDone(t, h)

	if len(transport.frames) != 6 {
		t.Errorf("frames sent = %d, want 6", len(transport.frames))
	}
}

func TestTrackEndsWhenFirstReadFails(t *testing.T) {
	boom := errors.New("decode failed: exit status 1: boom")
	transport := newFakeTransport()
	h := voice.NewCall(transport).Attach(io.NopCloser(iotest.ErrReader(boom)))

	if err := h.Play(); !errors.Is(err, boom) {
		t.Fatalf("play err = %v, want %v", err, boom)
	}
	info, err := h.Info()
	if !errors.Is(err, voice.ErrTrackFinished) || info.State != voice.StateEnded {
		t.Errorf("after failed start: %+v, %v", info, err)
	}
	waitDone(t, h)
	if len(transport.frames) != 0 {
		t.Errorf("frames sent = %d, want 0", len(transport.frames))
	}
	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.speaking) != 0 {
		t.Errorf("speaking = %v, want none", transport.speaking)
	}
}

func TestEmptySourceEndsOnPlay(t *testing.T) {
	h := voice.NewCall(newFakeTransport()).Attach(io.NopCloser(bytes.NewReader(nil)))
	if err := h.Play(); !errors.Is(err, voice.ErrTrackFinished) {
		t.Errorf("play err = %v, want %v", err, voice.ErrTrackFinished)
	}
	if err := h.Stop(); err != nil {
		t.Error(err)
	}
}

func TestLoopsNeedSeekableSource(t *testing.T) {
	h := voice.NewCall(newFakeTransport()).Attach(io.NopCloser(bytes.NewReader(silence(1))))
	if err := h.SetLoops(1); err == nil {
		t.Error("expected an error for a non-seekable source")
	}
}

type closeSignal struct {
	io.Reader
	closed chan struct{}
	once   sync.Once
}

func (c *closeSignal) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestCallStopEndsAttachedTracks(t *testing.T) {
	// Unbuffered and never read: the track blocks on its first frame.
	transport := &fakeTransport{frames: make(chan []byte)}
	call := voice.NewCall(transport)

	src := &closeSignal{Reader: bytes.NewReader(silence(10)), closed: make(chan struct{})}
	playing := call.Attach(src)
	playing.Play()
	pending := call.Attach(io.NopCloser(bytes.NewReader(silence(1))))

	call.Stop()

	for _, h := range []voice.Handle{playing, pending} {
		if info, _ := h.Info(); info.State != voice.StateEnded {
			t.Errorf("state = %v, want ended", info.State)
		}
	}
	select {
	case <-src.closed:
	default:
		t.Error("source of the stopped track was not closed")
	}
}

func TestVolumeIsReported(t *testing.T) {
	h := voice.NewCall(newFakeTransport()).Attach(io.NopCloser(bytes.NewReader(nil)))
	if err := h.SetVolume(0.25); err != nil {
		t.Fatal(err)
	}
	info, _ := h.Info()
	if info.Volume != 0.25 {
		t.Errorf("volume = %v", info.Volume)
	}
}
