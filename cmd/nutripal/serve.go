// cmd/nutripal/serve.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nutripal/internal/api"
	"nutripal/internal/coach"
	"nutripal/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	gateway := coach.NewGatewayClient(coach.GatewayConfig{
		URL:         cfg.AI.GatewayURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Timeout:     cfg.AI.TimeoutDuration(),
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	})
	latency := coach.NewLatencyRecorder(coach.DefaultLatencyWindow)
	c := coach.New(gateway,
		coach.WithRequestsPerMinute(cfg.AI.RequestsPerMinute),
		coach.WithLatencyRecorder(latency),
	)

	a, err := openApp(cfg, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	api.Version = version
	srv, err := api.New(a, api.Config{
		Listen:        cfg.Listen,
		SessionKey:    cfg.SessionKey,
		SessionMaxAge: cfg.SessionMaxAgeDuration(),
		Model:         gateway.Model(),
		Latency:       latency,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", "error", err)
		return err
	}
	return nil
}
