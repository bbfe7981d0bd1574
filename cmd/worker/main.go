package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glizzus/jukebox/internal/config"
	"github.com/glizzus/jukebox/internal/datalayer"
	"github.com/glizzus/jukebox/internal/events"
	"github.com/glizzus/jukebox/internal/handler"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/worker"
	"github.com/redis/go-redis/v9"
)

var dryRun = flag.Bool("dry-run", false, "Do not use Discord, only record history")

func runWorkerForever() error {
	flag.Parse()
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

	consumer, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	store := history.NewPostgresStore(pool)

	var recorder *worker.Recorder
	if *dryRun {
		slog.Info("Dry run mode: history messages will not be posted")
		recorder = worker.NewRecorder(nil, store, "")
	} else {
		discordConfig, err := config.NewDiscordConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load discord config: %w", err)
		}

		session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
			Ready: handler.ReadyLog,
		})
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		if err := session.Open(); err != nil {
			return fmt.Errorf("failed to open discord session: %w", err)
		}
		defer func() {
			if err := session.Close(); err != nil {
				slog.Error("failed to close discord session", "error", err)
			}
		}()

		if discordConfig.HistoryChannelID == "" {
			slog.Warn("DISCORD_HISTORY_CHANNEL_ID is not set, history will not be posted")
		}
		recorder = worker.NewRecorder(session, store, discordConfig.HistoryChannelID)
	}

	receiver, err := events.NewRedisReceiver(ctx, rdb, redisConfig.Stream, redisConfig.Group, consumer)
	if err != nil {
		return fmt.Errorf("failed to create event receiver: %w", err)
	}

	slog.Info("Receiving events", "stream", redisConfig.Stream, "group", redisConfig.Group, "consumer", consumer)
	err = receiver.Receive(ctx, recorder.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	if err := runWorkerForever(); err != nil {
		slog.Error("Worker encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
