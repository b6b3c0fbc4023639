package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/innerlight-hq/distill/internal/api"
	"github.com/innerlight-hq/distill/internal/hermes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and event subscriber",
	Long: `Start the long-running service: the HTTP API plus, when NATS is
configured, a subscriber on wisdom.session.recorded that processes each
recorded session as it arrives.

Examples:
  distill serve
  DISTILL_PORT=9000 distill serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc, hermesClient, cleanup, err := buildProcessor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectSessionRecorded, proc.HandleSessionRecorded); err != nil {
			return fmt.Errorf("subscribe to session events: %w", err)
		}
	}

	srv := api.NewServer(cfg.Port, proc)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("distill ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		cancel()
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
