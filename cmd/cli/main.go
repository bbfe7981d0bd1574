package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/config"
	"github.com/glizzus/jukebox/internal/datalayer"
	"github.com/glizzus/jukebox/internal/download"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/provider/soundcloud"
	"github.com/glizzus/jukebox/internal/provider/youtube"
	"github.com/glizzus/jukebox/internal/transcode"
	"github.com/urfave/cli/v2"
)

func newYouTubeClient() (*youtube.Client, *config.ProviderConfig, error) {
	providerConfig, err := config.NewProviderConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	yt := youtube.NewClient(providerConfig.YouTubeAPIKey, youtube.WithRateLimit(providerConfig.YouTubeRateLimit, 1))
	return yt, providerConfig, nil
}

func newResolver(ctx context.Context) (*audio.Resolver, error) {
	mediaConfig, err := config.NewMediaConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load media config: %w", err)
	}
	yt, providerConfig, err := newYouTubeClient()
	if err != nil {
		return nil, fmt.Errorf("failed to load provider config: %w", err)
	}

	var opts []audio.ResolverOption
	if mediaConfig.RemoteCache {
		minioStorage, err := datalayer.NewMinioStorageFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to create minio storage: %w", err)
		}
		if err := minioStorage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure minio bucket: %w", err)
		}
		opts = append(opts, audio.WithBlobStorage(minioStorage))
	}

	return audio.NewResolver(
		cache.New(mediaConfig.CacheRoot, transcode.New(mediaConfig.FFmpegPath)),
		&download.YTDLP{
			Executable:          mediaConfig.YtdlpPath,
			ConcurrentFragments: mediaConfig.ConcurrentFragments,
		},
		yt,
		soundcloud.NewClient(providerConfig.SoundCloudClientID),
		opts...,
	), nil
}

func printMetadata(meta media.Metadata) {
	duration := "live"
	if meta.Duration != nil {
		duration = media.FormatDuration(*meta.Duration)
	}
	fmt.Printf("%s\t%s\t%s\t%s\n", meta.Title, meta.UploadedBy, duration, meta.URL)
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	app := &cli.App{
		Name:        "jukebox-cli",
		Description: "A development CLI tool for testing Jukebox without Discord",
		Commands: []*cli.Command{
			{
				Name:      "fetch",
				Usage:     "Resolve a YouTube or SoundCloud link and download it into the media cache",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					target := c.Args().First()
					kind, ok := audio.Classify(target)
					if !ok {
						return cli.Exit("Please provide a YouTube or SoundCloud link", 1)
					}

					resolver, err := newResolver(c.Context)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					ref, err := resolver.Identify(c.Context, kind, target)
					if err != nil {
						return cli.Exit("Failed to identify: "+err.Error(), 1)
					}
					source, err := resolver.Resolve(c.Context, ref)
					if err != nil {
						return cli.Exit("Failed to fetch: "+err.Error(), 1)
					}

					printMetadata(source.Metadata())
					return nil
				},
			},
			{
				Name:      "search",
				Usage:     "Search YouTube for videos",
				ArgsUsage: "<keywords>",
				Action: func(c *cli.Context) error {
					query := c.Args().First()
					if query == "" {
						return cli.Exit("Please provide search keywords", 1)
					}

					yt, _, err := newYouTubeClient()
					if err != nil {
						return cli.Exit("Failed to load provider config: "+err.Error(), 1)
					}

					results, err := yt.Search(c.Context, query)
					if err != nil {
						return cli.Exit("Search failed: "+err.Error(), 1)
					}
					if len(results) == 0 {
						log.Println("No results found.")
						return nil
					}
					for _, meta := range results {
						printMetadata(meta)
					}
					return nil
				},
			},
			{
				Name:  "history",
				Usage: "List the most recently played items",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of records to list",
						Value: 10,
					},
				},
				Action: func(c *cli.Context) error {
					pool, err := datalayer.NewPostgresPoolFromEnv(c.Context)
					if err != nil {
						return cli.Exit("Failed to create postgres pool: "+err.Error(), 1)
					}
					defer pool.Close()
					if err := datalayer.MigratePostgres(pool); err != nil {
						return cli.Exit("Failed to migrate postgres: "+err.Error(), 1)
					}

					records, err := history.NewPostgresStore(pool).Recent(c.Context, c.Int("limit"))
					if err != nil {
						return cli.Exit("Failed to list history: "+err.Error(), 1)
					}
					if len(records) == 0 {
						log.Println("No history yet.")
						return nil
					}
					for _, r := range records {
						fmt.Printf("%s\t%s\t%s\t%d%%\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Kind, r.Title, r.Volume, r.UserID)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
