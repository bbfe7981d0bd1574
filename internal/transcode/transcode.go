// Package transcode turns arbitrary audio into the raw PCM the voice
// transport consumes: 32-bit float little-endian, 2 channels, 48 kHz.
package transcode

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"
)

const (
	SampleRate = 48000
	Channels   = 2
	// BytesPerSample is the size of one f32le sample.
	BytesPerSample = 4
)

// Mode selects how decoded output is delivered.
type Mode int

const (
	// ModeStream hands out the decoder's stdout as it is produced.
	ModeStream Mode = iota
	// ModeBuffer reads the whole output into memory before returning.
	// The result implements io.Seeker so it can be replayed.
	ModeBuffer
)

func (m Mode) String() string {
	if m == ModeBuffer {
		return "buffer"
	}
	return "stream"
}

type Transcoder struct {
	// Path is the ffmpeg executable.
	Path string
}

func New(path string) *Transcoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &Transcoder{Path: path}
}

func (t *Transcoder) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "2",
		"-ar", "48000",
		"pipe:1",
	}
}

// Decode spawns the decoder reading from src. Decode owns src and closes it
// on every path, including errors. The caller must Close the returned stream;
// closing kills and reaps the decoder if it is still running.
func (t *Transcoder) Decode(ctx context.Context, src io.ReadCloser, mode Mode) (io.ReadCloser, error) {
	var cmd *exec.Cmd
	if mode == ModeBuffer {
		cmd = exec.CommandContext(ctx, t.Path, t.args()...)
	} else {
		// A streaming decoder outlives the request that started it.
		cmd = exec.Command(t.Path, t.args()...)
	}

	stderr := &tail{max: 2048}
	cmd.Stdin = src
	cmd.Stderr = stderr
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		src.Close()
		return nil, &SpawnError{Path: t.Path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		src.Close()
		return nil, &SpawnError{Path: t.Path, Err: err}
	}

	if mode == ModeBuffer {
		return buffer(cmd, stdout, src, stderr)
	}
	return &stream{cmd: cmd, stdout: stdout, src: src, stderr: stderr}, nil
}

func buffer(cmd *exec.Cmd, stdout io.Reader, src io.Closer, stderr *tail) (io.ReadCloser, error) {
	data, readErr := io.ReadAll(stdout)
	waitErr := cmd.Wait()
	src.Close()

	if readErr != nil {
		return nil, &DecodeError{Err: readErr, Stderr: stderr.String()}
	}
	if waitErr != nil {
		return nil, &DecodeError{Err: waitErr, Stderr: stderr.String()}
	}
	return &memory{Reader: bytes.NewReader(data)}, nil
}

// memory is a fully decoded track.
type memory struct {
	*bytes.Reader
}

func (m *memory) Close() error { return nil }

// stream reaps the decoder either when its output hits EOF or on Close,
// whichever comes first.
type stream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	src    io.Closer
	stderr *tail

	once    sync.Once
	waitErr error
}

func (s *stream) wait() error {
	s.once.Do(func() {
		s.waitErr = s.cmd.Wait()
		s.src.Close()
	})
	return s.waitErr
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == nil {
		return n, nil
	}
	if err == io.EOF {
		if werr := s.wait(); werr != nil {
			return n, &DecodeError{Err: werr, Stderr: s.stderr.String()}
		}
		return n, io.EOF
	}
	return n, &DecodeError{Err: err, Stderr: s.stderr.String()}
}

func (s *stream) Close() error {
	// Kill FFmpeg if still running (e.g. playback stopped early).
	s.cmd.Process.Kill()
	s.wait()
	return nil
}

// tail keeps the last max bytes written to it.
type tail struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf))
}
