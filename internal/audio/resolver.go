package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/datalayer"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/provider/soundcloud"
	"github.com/glizzus/jukebox/internal/provider/youtube"
)

// Fetcher downloads target into dir, naming the file after the provider id.
type Fetcher interface {
	Fetch(ctx context.Context, target, dir string) error
}

type VideoGetter interface {
	Get(ctx context.Context, id string) (media.Metadata, error)
}

type TrackGetter interface {
	GetTrack(ctx context.Context, trackURL string) (soundcloud.Track, error)
}

type Resolver struct {
	cache      *cache.Cache
	fetcher    Fetcher
	youtube    VideoGetter
	soundcloud TrackGetter
	blob       datalayer.BlobStorage
}

type ResolverOption func(*Resolver)

// WithBlobStorage adds a remote tier that is checked before downloading and
// receives every fresh download.
func WithBlobStorage(blob datalayer.BlobStorage) ResolverOption {
	return func(r *Resolver) { r.blob = blob }
}

func NewResolver(c *cache.Cache, fetcher Fetcher, yt VideoGetter, sc TrackGetter, opts ...ResolverOption) *Resolver {
	r := &Resolver{cache: c, fetcher: fetcher, youtube: yt, soundcloud: sc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identify derives the canonical id of identifier. YouTube URLs are parsed
// locally and bare ids are taken as-is; SoundCloud links are resolved
// through the API.
func (r *Resolver) Identify(ctx context.Context, kind media.Kind, identifier string) (Ref, error) {
	identifier = strings.TrimSpace(identifier)

	switch kind {
	case media.KindYouTube:
		id := identifier
		if youtube.IsURL(identifier) {
			var err error
			if id, err = youtube.VideoID(identifier); err != nil {
				return Ref{}, err
			}
		}
		if id == "" {
			return Ref{}, fmt.Errorf("empty youtube id")
		}
		// yt-dlp reads a leading "-" as a flag, so always hand it a URL.
		return Ref{Kind: kind, ID: id, URL: youtube.WatchURL(id)}, nil

	case media.KindSoundCloud:
		track, err := r.soundcloud.GetTrack(ctx, identifier)
		if err != nil {
			return Ref{}, err
		}
		target := track.PermalinkURL
		if target == "" {
			target = identifier
		}
		meta := track.Metadata()
		return Ref{Kind: kind, ID: meta.ID, URL: target, meta: &meta}, nil

	default:
		return Ref{}, fmt.Errorf("unsupported media kind %q", kind)
	}
}

// Resolve makes sure ref is cached and returns it with provider metadata.
// Metadata always comes from the provider API, never from the downloader.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (*Source, error) {
	meta, err := r.metadata(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := r.ensureCached(ctx, ref); err != nil {
		return nil, err
	}

	return &Source{kind: ref.Kind, meta: meta, cache: r.cache}, nil
}

func (r *Resolver) metadata(ctx context.Context, ref Ref) (media.Metadata, error) {
	if ref.meta != nil {
		return *ref.meta, nil
	}

	switch ref.Kind {
	case media.KindYouTube:
		return r.youtube.Get(ctx, ref.ID)
	case media.KindSoundCloud:
		track, err := r.soundcloud.GetTrack(ctx, ref.URL)
		if err != nil {
			return media.Metadata{}, err
		}
		return track.Metadata(), nil
	default:
		return media.Metadata{}, fmt.Errorf("unsupported media kind %q", ref.Kind)
	}
}

func blobKey(ref Ref) string {
	return ref.Kind.String() + "/" + ref.ID
}

func (r *Resolver) ensureCached(ctx context.Context, ref Ref) error {
	exists, err := r.cache.Exists(ref.Kind, ref.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if r.blob != nil && r.restore(ctx, ref) {
		return nil
	}

	dir, err := r.cache.Dir(ref.Kind)
	if err != nil {
		return err
	}
	if err := r.fetcher.Fetch(ctx, ref.URL, dir); err != nil {
		return fmt.Errorf("unable to download %s: %w", ref.URL, err)
	}

	exists, err = r.cache.Exists(ref.Kind, ref.ID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: nothing cached for %s", ErrMustSingleVideo, ref.URL)
	}

	if r.blob != nil {
		r.upload(ctx, ref)
	}
	return nil
}

// restore copies the entry from blob storage into the local cache.
func (r *Resolver) restore(ctx context.Context, ref Ref) bool {
	key := blobKey(ref)
	obj, err := r.blob.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, datalayer.ErrBlobNotFound) {
			slog.Warn("blob lookup failed", "key", key, "error", err)
		}
		return false
	}
	defer obj.Close()

	if err := r.cache.Store(ref.Kind, ref.ID, obj); err != nil {
		slog.Warn("unable to restore from blob storage", "key", key, "error", err)
		return false
	}
	slog.Debug("restored from blob storage", "key", key)
	return true
}

// upload is best effort; a failure only costs a future download.
func (r *Resolver) upload(ctx context.Context, ref Ref) {
	key := blobKey(ref)
	f, err := r.cache.Open(ref.Kind, ref.ID)
	if err != nil {
		slog.Warn("unable to open download for upload", "key", key, "error", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Warn("unable to stat download for upload", "key", key, "error", err)
		return
	}

	opts := datalayer.PutOptions{Size: info.Size(), ContentType: "application/octet-stream"}
	if err := r.blob.Put(ctx, key, f, opts); err != nil {
		slog.Warn("unable to upload to blob storage", "key", key, "error", err)
	}
}
