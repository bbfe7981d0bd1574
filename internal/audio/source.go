// Package audio resolves user input to cached, decodable media.
package audio

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/provider/soundcloud"
	"github.com/glizzus/jukebox/internal/provider/youtube"
	"github.com/glizzus/jukebox/internal/transcode"
)

// ErrMustSingleVideo is returned when a download did not produce exactly one
// cache entry, e.g. because the target was a playlist.
var ErrMustSingleVideo = errors.New("must be a single video")

// Ref identifies one remote item before anything is downloaded.
// ID is the canonical provider id; URL is what the downloader is given.
type Ref struct {
	Kind media.Kind
	ID   string
	URL  string

	// meta is set when identifying already returned provider metadata.
	meta *media.Metadata
}

// Source is a resolved item whose cache entry existed when it was built.
// It is the same shape for every kind; kind-specific behavior lives in Resolver.
type Source struct {
	kind  media.Kind
	meta  media.Metadata
	cache *cache.Cache
}

func (s *Source) Kind() media.Kind {
	return s.kind
}

func (s *Source) Metadata() media.Metadata {
	return s.meta
}

// Decoded opens the cached file through the transcoder. It never downloads:
// a missing entry fails with *cache.MissError.
func (s *Source) Decoded(ctx context.Context, mode transcode.Mode) (io.ReadCloser, error) {
	return s.cache.OpenDecoded(ctx, s.kind, s.meta.ID, mode)
}

// Classify returns the provider kind of a URL. ok is false when s should be
// treated as a search keyword.
func Classify(s string) (kind media.Kind, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case youtube.IsURL(s):
		return media.KindYouTube, true
	case soundcloud.IsURL(s):
		return media.KindSoundCloud, true
	default:
		return "", false
	}
}
