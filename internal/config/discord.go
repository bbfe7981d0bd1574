package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// DiscordConfig describes the single guild and voice channel the bot serves.
// Playback always targets VoiceChannelID; HistoryChannelID receives the
// "now playing" messages rendered by the worker.
type DiscordConfig struct {
	Token            string `env:"DISCORD_TOKEN, required"`
	GuildID          string `env:"DISCORD_GUILD_ID, required"`
	VoiceChannelID   string `env:"DISCORD_VOICE_CHANNEL_ID, required"`
	HistoryChannelID string `env:"DISCORD_HISTORY_CHANNEL_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.GuildID == cfg.VoiceChannelID {
		return nil, fmt.Errorf("DISCORD_VOICE_CHANNEL_ID must not equal DISCORD_GUILD_ID")
	}

	return &cfg, nil
}
