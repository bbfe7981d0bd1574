package config

import (
	"context"
	"fmt"
	"time"

	"github.com/glizzus/jukebox/internal/schedule"
	"github.com/sethvargo/go-envconfig"
)

type MediaConfig struct {
	CacheRoot           string        `env:"MEDIA_CACHE_ROOT, default=./cache"`
	YtdlpPath           string        `env:"MEDIA_YTDLP_PATH"`
	FFmpegPath          string        `env:"MEDIA_FFMPEG_PATH, default=ffmpeg"`
	ConcurrentFragments int           `env:"MEDIA_CONCURRENT_FRAGMENTS, default=2"`
	PruneCron           string        `env:"MEDIA_PRUNE_CRON, default=0 4 * * *"`
	PruneMaxAge         time.Duration `env:"MEDIA_PRUNE_MAX_AGE, default=720h"`
	RemoteCache         bool          `env:"MEDIA_REMOTE_CACHE"`
}

func NewMediaConfigFromEnv() (*MediaConfig, error) {
	var cfg MediaConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.ConcurrentFragments < 1 {
		return nil, fmt.Errorf("MEDIA_CONCURRENT_FRAGMENTS must be at least 1, got %d", cfg.ConcurrentFragments)
	}
	if err := schedule.ValidateCron(cfg.PruneCron); err != nil {
		return nil, fmt.Errorf("MEDIA_PRUNE_CRON: %w", err)
	}

	return &cfg, nil
}
