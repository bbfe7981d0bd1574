// Package cache stores downloaded media on the local filesystem at
// {root}/{kind}/{canonical id}. A file's existence is the only state.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/transcode"
)

// Decoder turns a cached file into PCM.
type Decoder interface {
	Decode(ctx context.Context, src io.ReadCloser, mode transcode.Mode) (io.ReadCloser, error)
}

type Cache struct {
	root    string
	decoder Decoder
}

func New(root string, decoder Decoder) *Cache {
	return &Cache{root: root, decoder: decoder}
}

func (c *Cache) Root() string {
	return c.root
}

// Path is where the entry for (kind, id) lives, whether or not it exists.
func (c *Cache) Path(kind media.Kind, id string) string {
	return filepath.Join(c.root, kind.String(), id)
}

// Dir returns the directory for kind, creating it if needed.
func (c *Cache) Dir(kind media.Kind) (string, error) {
	dir := filepath.Join(c.root, kind.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create cache directory %s: %w", dir, err)
	}
	return dir, nil
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid cache id %q", id)
	}
	return nil
}

// Exists reports whether a regular file is cached for (kind, id).
func (c *Cache) Exists(kind media.Kind, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	info, err := os.Stat(c.Path(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to stat cache entry: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open opens the cached file. A missing entry yields a *MissError.
func (c *Cache) Open(kind media.Kind, id string) (*os.File, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	f, err := os.Open(c.Path(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open cache entry: %w", err)
	}
	return f, nil
}

// OpenDecoded opens the cached file and hands it to the decoder.
// It never downloads; a missing entry yields a *MissError.
func (c *Cache) OpenDecoded(ctx context.Context, kind media.Kind, id string, mode transcode.Mode) (io.ReadCloser, error) {
	f, err := c.Open(kind, id)
	if err != nil {
		return nil, err
	}
	return c.decoder.Decode(ctx, f, mode)
}

// Store writes r as the entry for (kind, id). The entry appears atomically.
func (c *Cache) Store(kind media.Kind, id string, r io.Reader) error {
	if err := checkID(id); err != nil {
		return err
	}
	dir, err := c.Dir(kind)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+id+"-*")
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(kind, id)); err != nil {
		return fmt.Errorf("unable to commit cache entry: %w", err)
	}
	return nil
}

// Prune removes entries last modified before now minus maxAge.
// It returns the number of files removed.
func (c *Cache) Prune(maxAge time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-maxAge)
	removed := 0

	for _, kind := range media.Kinds {
		dir := filepath.Join(c.root, kind.String())
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("unable to read cache directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("unable to prune cache entry", "path", path, "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
