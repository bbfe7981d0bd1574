package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/cache"
	"github.com/glizzus/jukebox/internal/config"
	"github.com/glizzus/jukebox/internal/datalayer"
	"github.com/glizzus/jukebox/internal/download"
	"github.com/glizzus/jukebox/internal/events"
	"github.com/glizzus/jukebox/internal/generator"
	"github.com/glizzus/jukebox/internal/handler"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/provider/soundcloud"
	"github.com/glizzus/jukebox/internal/provider/youtube"
	"github.com/glizzus/jukebox/internal/schedule"
	"github.com/glizzus/jukebox/internal/track"
	"github.com/glizzus/jukebox/internal/transcode"
	"github.com/glizzus/jukebox/internal/voice"
	"github.com/lrstanley/go-ytdlp"
	"github.com/redis/go-redis/v9"
)

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	slog.SetLogLoggerLevel(config.LogLevel(os.Getenv("LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	mediaConfig, err := config.NewMediaConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load media config: %w", err)
	}
	providerConfig, err := config.NewProviderConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load provider config: %w", err)
	}
	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	if mediaConfig.YtdlpPath == "" {
		ytdlp.MustInstall(ctx, nil)
	}

	mediaCache := cache.New(mediaConfig.CacheRoot, transcode.New(mediaConfig.FFmpegPath))
	yt := youtube.NewClient(providerConfig.YouTubeAPIKey, youtube.WithRateLimit(providerConfig.YouTubeRateLimit, 1))
	sc := soundcloud.NewClient(providerConfig.SoundCloudClientID)
	fetcher := &download.YTDLP{
		Executable:          mediaConfig.YtdlpPath,
		ConcurrentFragments: mediaConfig.ConcurrentFragments,
	}

	var resolverOpts []audio.ResolverOption
	if mediaConfig.RemoteCache {
		minioStorage, err := datalayer.NewMinioStorageFromEnv()
		if err != nil {
			return fmt.Errorf("failed to create minio storage: %w", err)
		}
		if err := minioStorage.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure minio bucket: %w", err)
		}
		resolverOpts = append(resolverOpts, audio.WithBlobStorage(minioStorage))
	}
	resolver := audio.NewResolver(mediaCache, fetcher, yt, sc, resolverOpts...)

	fm := handler.NewFlowManager(&generator.UUIDV4Generator{})

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready:             handler.ReadyLog,
		InteractionCreate: handler.MakeInteractionCreateHandler(fm),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	voiceManager := voice.NewManager(session)
	orchestrator := player.New(discordConfig.GuildID, discordConfig.VoiceChannelID, player.Deps{
		Joiner:    voiceManager,
		Resolver:  player.FromAudio(resolver),
		History:   history.NewPostgresStore(pool),
		Registry:  track.NewRegistry(),
		Publisher: events.NewRedisPublisher(rdb, redisConfig.Stream),
		IDs:       &generator.UUIDV4Generator{},
	})

	handler.RegisterFlows(fm, handler.Deps{
		Player:           orchestrator,
		Searcher:         yt,
		HistoryChannelID: discordConfig.HistoryChannelID,
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()
	defer voiceManager.LeaveAll()
	defer func() {
		if err := orchestrator.Close(); err != nil {
			slog.Warn("failed to stop playback", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, discordConfig.GuildID); err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}

	go pruneCache(ctx, mediaCache, mediaConfig)

	<-ctx.Done()
	slog.Info("Shutting down")
	return nil
}

// pruneCache removes cached media downloaded longer ago than the configured
// age, on the configured schedule.
func pruneCache(ctx context.Context, c *cache.Cache, cfg *config.MediaConfig) {
	if next, err := schedule.NextRunTimes(cfg.PruneCron, 1); err == nil && len(next) > 0 {
		slog.Info("Scheduled cache pruning", "cron", cfg.PruneCron, "next", next[0].Format(time.RFC3339))
	}

	err := schedule.Every(ctx, cfg.PruneCron, func(ctx context.Context, at time.Time) {
		removed, err := c.Prune(cfg.PruneMaxAge, at)
		if err != nil {
			slog.Error("failed to prune cache", "error", err)
			return
		}
		slog.Info("Pruned cache", "removed", removed, "maxAge", cfg.PruneMaxAge)
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("cache pruning stopped", "error", err)
	}
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
