package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/glizzus/jukebox/internal/config"
)

func TestMediaConfigDefaults(t *testing.T) {
	cfg, err := config.NewMediaConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheRoot != "./cache" || cfg.FFmpegPath != "ffmpeg" || cfg.ConcurrentFragments != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PruneMaxAge != 720*time.Hour {
		t.Errorf("prune max age = %v", cfg.PruneMaxAge)
	}
}

func TestMediaConfigValidation(t *testing.T) {
	table := []struct {
		name string
		env  map[string]string
	}{
		{"no fragments", map[string]string{"MEDIA_CONCURRENT_FRAGMENTS": "0"}},
		{"bad cron", map[string]string{"MEDIA_PRUNE_CRON": "every day"}},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := config.NewMediaConfigFromEnv(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDiscordConfigRejectsGuildAsChannel(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GUILD_ID", "1")
	t.Setenv("DISCORD_VOICE_CHANNEL_ID", "1")

	if _, err := config.NewDiscordConfigFromEnv(); err == nil {
		t.Error("expected error")
	}

	t.Setenv("DISCORD_VOICE_CHANNEL_ID", "2")
	cfg, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryChannelID != "" {
		t.Errorf("history channel = %q", cfg.HistoryChannelID)
	}
}

func TestPostgresDSN(t *testing.T) {
	base := config.PostgresConfig{
		Host:     "db",
		Port:     "5432",
		Username: "user",
		Password: "secret",
		Database: "jukebox",
		SSLMode:  "disable",
	}

	escaped := base
	escaped.Password = "p@ss/word"

	pooled := base
	pooled.MaxConns = 8

	table := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{"plain", base, "postgres://user:secret@db:5432/jukebox?sslmode=disable"},
		{"escaped password", escaped, "postgres://user:p%40ss%2Fword@db:5432/jukebox?sslmode=disable"},
		{"pool size", pooled, "postgres://user:secret@db:5432/jukebox?pool_max_conns=8&sslmode=disable"},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.DSN(); got != tc.want {
				t.Errorf("DSN() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	table := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range table {
		if got := config.LogLevel(in); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
