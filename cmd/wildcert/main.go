package main

import (
	"log/slog"
	"os"

	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
	"github.com/lite-lake/wildcert/internal/interfaces/cli"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("WILDCERT_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}

	logCfg := &logger.Config{
		Level:     logLevel,
		Format:    os.Getenv("WILDCERT_LOG_FORMAT"),
		AddSource: os.Getenv("WILDCERT_DEBUG") != "",
	}
	logger.Init(logCfg)

	os.Exit(cli.Execute(logCfg))
}
