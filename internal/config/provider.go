package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// ProviderConfig holds the credentials for the remote media APIs.
type ProviderConfig struct {
	YouTubeAPIKey      string  `env:"YOUTUBE_API_KEY, required"`
	YouTubeRateLimit   float64 `env:"YOUTUBE_RATE_LIMIT, default=5"`
	SoundCloudClientID string  `env:"SOUNDCLOUD_CLIENT_ID"`
}

func NewProviderConfigFromEnv() (*ProviderConfig, error) {
	var cfg ProviderConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
