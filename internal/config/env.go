package config

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file in the working directory.
// Variables that are already set in the environment win.
// The returned error satisfies os.IsNotExist when there is no .env file.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// LogLevel maps LOG_LEVEL values onto slog levels. Unknown values fall back to info.
func LogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
