package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/innerlight-hq/distill/internal/anonymizer"
	"github.com/innerlight-hq/distill/internal/anthropic"
	"github.com/innerlight-hq/distill/internal/config"
	"github.com/innerlight-hq/distill/internal/extractor"
	"github.com/innerlight-hq/distill/internal/hermes"
	"github.com/innerlight-hq/distill/internal/library"
	"github.com/innerlight-hq/distill/internal/notify"
	"github.com/innerlight-hq/distill/internal/pipeline"
	"github.com/innerlight-hq/distill/internal/store"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "distill",
	Short: "Transcript-to-wisdom pipeline",
	Long: `distill turns raw healing-session transcripts into a de-identified
wisdom library.

Each session runs through a fixed sequence: consent check, anonymization,
independent privacy verification, pattern extraction, library merge, and
only then deletion of the original. An original transcript is never removed
before its anonymized artifact and the updated library are durably saved.

Commands:
  serve    Run the HTTP API and event subscriber
  process  Process a single session transcript
  batch    Process a manifest of sessions with pacing
  stats    Show wisdom library statistics

Configuration is environment-based (DISTILL_*, ANTHROPIC_API_KEY, NATS_URL,
DATABASE_URL, SLACK_BOT_TOKEN).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		setupLogging(cfg.LogLevel)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// buildProcessor wires the full pipeline from configuration. The database,
// NATS, and Slack integrations attach only when configured; the pipeline's
// safety gates never depend on them.
func buildProcessor(ctx context.Context) (*pipeline.Processor, *hermes.Client, func(), error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, nil, nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	anon := anonymizer.New(llm, slog.Default())
	ext := extractor.New(llm, extractor.Config{
		ConfidenceFloor: cfg.ConfidenceFloor,
		PatternCap:      cfg.PatternCap,
	}, slog.Default())

	lib, err := library.Load(cfg.LibraryPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load wisdom library: %w", err)
	}
	slog.Info("wisdom library loaded", "path", cfg.LibraryPath, "patterns", lib.Len())

	proc := pipeline.New(pipeline.Config{
		ArtifactDir:            cfg.ArtifactDir,
		PacingDelay:            time.Duration(cfg.PacingSeconds) * time.Second,
		DeleteOnExtractFailure: cfg.DeleteOnExtractFailure,
	}, pipeline.FileSource{}, anon, ext, lib, slog.Default())

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		cleanups = append(cleanups, db.Close)
		proc.WithArchiver(db)
		slog.Info("database connected")
	}

	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect to NATS: %w", err)
		}
		cleanups = append(cleanups, hermesClient.Close)
		proc.WithPublisher(hermesClient)
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		proc.WithNotifier(notify.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default()))
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, running without review alerts")
	}

	return proc, hermesClient, cleanup, nil
}
