package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/handler"
	"github.com/huynhducanh/portfolio/backend/internal/handler/realtime"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/model/profile"
	"github.com/huynhducanh/portfolio/backend/internal/relay"
	"github.com/huynhducanh/portfolio/backend/internal/service/ai"
	chatservice "github.com/huynhducanh/portfolio/backend/internal/service/chat"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
)

const (
	shutdownTimeout = 10 * time.Second
	shutdownMessage = "Server is shutting down. Please reconnect in a moment."
)

type options struct {
	addr    string
	dev     bool
	envFile string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "portfolio-api",
		Short:         "Portfolio backend: realtime chat relay and AI gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "listen address, overrides PORT")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "development mode, overrides DEV_MODE")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newHealthcheckCommand(opts))
	return root
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && cmd.Flags().Changed("env-file") {
			return nil, fmt.Errorf("load env file %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if cmd.Flags().Changed("dev") {
		cfg.Server.DevMode = opts.dev
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Log)

	sessions := session.NewRegistry(nil)
	conversations := conversation.NewTracker(nil)

	aiService, err := newAIService(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize AI backend")
		return err
	}

	hub := realtime.NewHub(logger)
	dispatcher := relay.NewDispatcher(sessions, conversations, aiService, hub, logger, relay.Options{
		WelcomeFromUpstream: cfg.Relay.WelcomeFromUpstream,
		DevMode:             cfg.Server.DevMode,
		Profile:             profile.Seed(),
	})

	reaper := relay.NewReaper(sessions, conversations, cfg.Relay, logger, nil)
	if err := reaper.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to start idle reaper")
		return err
	}

	router := handler.NewRouter(handler.Deps{
		Config:        cfg.Server,
		AI:            aiService,
		Hub:           hub,
		Dispatcher:    dispatcher,
		Sessions:      sessions,
		Conversations: conversations,
		Logger:        logger,
		StartedAt:     time.Now(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("ai_backend", string(cfg.AI.Backend)).
		Bool("dev", cfg.Server.DevMode).
		Msg("portfolio backend listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		reaper.Stop(context.Background())
		hub.CloseAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error().Err(err).Msg("server error")
		return err
	}

	dispatcher.Shutdown(shutdownMessage)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown incomplete")
	}
	hub.CloseAll()
	reaper.Stop(shutdownCtx)

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newAIService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (upstream.Service, error) {
	if cfg.AI.Backend == config.BackendHTTP {
		logger.Info().Str("base_url", cfg.Upstream.BaseURL).Msg("forwarding AI calls to external service")
		return upstream.NewClient(cfg.Upstream, logger), nil
	}

	transcripts := chatservice.NewService(chatservice.DefaultTranscriptLimit)
	assistant, err := ai.New(ctx, cfg.AI, transcripts, profile.Seed(), logger)
	if err != nil {
		return nil, err
	}
	return assistant, nil
}
