// Package download populates the media cache by running yt-dlp.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

const (
	// Format prefers an audio-only webm and falls back to whatever is best.
	Format = "webm[abr>0]/bestaudio/best"
	// OutputTemplate names the single output file after the provider id,
	// without an extension, so the cache key is the file name.
	OutputTemplate = "%(id)s"

	DefaultConcurrentFragments = 2
)

type YTDLP struct {
	// Executable overrides the yt-dlp binary; empty uses the one
	// resolved by go-ytdlp.
	Executable          string
	ConcurrentFragments int
}

func (y *YTDLP) command(dir string) *ytdlp.Command {
	fragments := y.ConcurrentFragments
	if fragments < 1 {
		fragments = DefaultConcurrentFragments
	}

	cmd := ytdlp.New().
		Format(Format).
		Output(filepath.Join(dir, OutputTemplate)).
		ConcurrentFragments(fragments).
		NoPlaylist().
		IgnoreConfig().
		NoWarnings()

	if y.Executable != "" {
		cmd.SetExecutable(y.Executable)
	}
	return cmd
}

// Fetch downloads target into dir. target must already be a URL; anything
// starting with "-" would be read as a flag.
func (y *YTDLP) Fetch(ctx context.Context, target, dir string) error {
	if strings.HasPrefix(target, "-") {
		return fmt.Errorf("refusing to download %q: looks like a flag", target)
	}

	slog.Info("downloading", "target", target, "dir", dir)
	res, err := y.command(dir).Run(ctx, target)
	if err != nil {
		derr := &Error{Target: target, Err: err}
		if res != nil {
			derr.Stderr = strings.TrimSpace(res.Stderr)
		}
		return derr
	}
	return nil
}

// Error is a failed yt-dlp run.
type Error struct {
	Target string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("yt-dlp failed for %s: %v: %s", e.Target, e.Err, e.Stderr)
	}
	return fmt.Sprintf("yt-dlp failed for %s: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var _ error = (*Error)(nil)
