package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipstory/clipstory/internal/api"
	"github.com/clipstory/clipstory/internal/config"
	"github.com/clipstory/clipstory/internal/doctor"
	"github.com/clipstory/clipstory/internal/footage"
	"github.com/clipstory/clipstory/internal/llm"
	"github.com/clipstory/clipstory/internal/logging"
	"github.com/clipstory/clipstory/internal/storyboard"
	"github.com/clipstory/clipstory/internal/transcode"
	"github.com/clipstory/clipstory/internal/workspace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "clipstory",
		Short:         "Video trimming and AI storyboard server",
		Version:       fmt.Sprintf("%s (%s)", config.Version, config.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotenv(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load (missing file is ignored)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg and API credentials, print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	})

	return root
}

func loadConfig() (*config.EnvConfig, *slog.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.NewLogger(cfg.LogLevel()), nil
}

func newProber(cfg config.Config, logger *slog.Logger) *doctor.SystemProber {
	llmKeySet := cfg.GeminiAPIKey() != ""
	if cfg.LLMProvider() == config.ProviderOpenAI {
		llmKeySet = cfg.OpenAIAPIKey() != ""
	}
	return doctor.NewSystemProber(doctor.Options{
		FFmpegPath:    cfg.FFmpegPath(),
		LLMProvider:   cfg.LLMProvider(),
		LLMKeySet:     llmKeySet,
		FootageKeySet: cfg.PexelsAPIKey() != "",
	}, logging.WithComponent(logger, "doctor"))
}

func runDoctor(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := newProber(cfg, logger).Probe(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("dependencies not ready")
	}
	return nil
}

func serve() error {
	startTime := time.Now()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting clipstory",
		"version", config.Version,
		"llm_provider", cfg.LLMProvider(),
		"pexels_key", logging.SanitizeToken(cfg.PexelsAPIKey()),
		"max_upload", logging.Bytes(cfg.MaxUploadBytes()),
	)

	ws := workspace.New(cfg.UploadDir(), cfg.OutputDir(), logging.WithComponent(logger, "workspace"))
	if err := ws.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create working directories: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator, err := llm.New(ctx, llm.Config{
		Provider:      cfg.LLMProvider(),
		GeminiAPIKey:  cfg.GeminiAPIKey(),
		GeminiModel:   cfg.GeminiModel(),
		OpenAIAPIKey:  cfg.OpenAIAPIKey(),
		OpenAIModel:   cfg.OpenAIModel(),
		OpenAIBaseURL: cfg.OpenAIBaseURL(),
		Timeout:       cfg.LLMTimeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize llm client: %w", err)
	}

	pexels := footage.NewClient(cfg.PexelsBaseURL(), cfg.PexelsAPIKey(), logger)
	resolver := footage.NewResolver(pexels, cfg.ResolveConcurrency(), logger)

	storyboards := storyboard.NewService(
		storyboard.NewGenerator(generator, logging.WithComponent(logger, "storyboard")),
		resolver,
		logger,
	)

	doc := doctor.NewCachedDoctor(newProber(cfg, logger), 0, logger)
	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	if report, err := doc.Refresh(initCtx); err != nil {
		logger.Warn("initial doctor probe failed", "error", err)
	} else if !report.FFmpeg.Available {
		logger.Warn("ffmpeg not found, /process-video will fail", "error", report.FFmpeg.Error)
	}
	initCancel()

	apiServer := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr(),
		Workspace:      ws,
		Transcoder:     transcode.NewFFmpeg(cfg.FFmpegPath(), logging.WithComponent(logger, "transcode")),
		Storyboard:     storyboards,
		Footage:        resolver,
		Doctor:         doc,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		TrimTimeout:    cfg.TrimTimeout(),
		AllowedOrigins: cfg.CORSAllowedOrigins(),
		StartTime:      startTime,
		Version:        config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
