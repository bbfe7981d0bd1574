package transcode

import "fmt"

// SpawnError means the decoder process could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to start decoder %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// DecodeError means the decoder started but failed: a broken pipe, a read
// error, or a non-zero exit. Stderr holds the tail of the decoder's output.
type DecodeError struct {
	Err    error
	Stderr string
}

func (e *DecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("decode failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	_ error = (*SpawnError)(nil)
	_ error = (*DecodeError)(nil)
)
