package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config selects the level, format and destination of the process logger.
type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
}

func DefaultConfig() *Config {
	return &Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// New builds a logger without touching the process default. Format "json"
// selects the JSON handler; anything else logs key=value text.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Init installs the configured logger as the slog default. The CLI calls it
// at startup and again when --verbose raises the level.
func Init(cfg *Config) {
	slog.SetDefault(New(cfg))
}
