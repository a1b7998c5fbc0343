package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("YTSUBS_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	if err := config.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	httpClient := &http.Client{Timeout: config.Backend.Timeout()}
	apiService := services.NewAPIService(config.Backend.BaseURL, httpClient)
	apiService.SetLogger(logger)
	if config.Backend.RequestsPerSecond > 0 {
		apiService.SetLimiter(rate.NewLimiter(rate.Limit(config.Backend.RequestsPerSecond), max(1, config.Backend.Burst)))
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		API:        apiService,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "ytsubs",
		Usage:    "Manage the channels a YouTube subscription downloader tracks",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
