package player

import (
	"context"
	"io"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/transcode"
)

// Source is a resolved, cached item.
type Source interface {
	Metadata() media.Metadata
	Decoded(ctx context.Context, mode transcode.Mode) (io.ReadCloser, error)
}

type Resolver interface {
	Identify(ctx context.Context, kind media.Kind, identifier string) (audio.Ref, error)
	Resolve(ctx context.Context, ref audio.Ref) (Source, error)
}

type audioResolver struct {
	*audio.Resolver
}

func (r audioResolver) Resolve(ctx context.Context, ref audio.Ref) (Source, error) {
	src, err := r.Resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// FromAudio adapts an *audio.Resolver.
func FromAudio(r *audio.Resolver) Resolver {
	return audioResolver{r}
}
