// Command konan is the stateless supervision orchestrator for coding-agent
// sessions. It consumes product events from Ably, resolves per-session
// supervision policy, and enqueues deduplicated jobs for the autonomous
// worker.
//
// Usage:
//
//	konan --device-id <device_id>
//
// Environment variables:
//
//	ABLY_API_KEY            - Ably API key (required)
//	KONAN_SETTINGS_SOCKET   - Settings store socket (default: ~/.unbound/settings.sock)
//	KONAN_PUBLISH_TIMEOUT   - Enqueue publish timeout in seconds (default: 5)
//	KONAN_SETTINGS_TIMEOUT  - Settings read timeout in seconds (default: 3)
//	KONAN_AUTO_APPROVE      - Default auto-approve toggle (plus _THRESHOLD)
//	KONAN_AUTO_REJECT       - Default auto-reject toggle (plus _THRESHOLD)
//	KONAN_AUTO_STEER        - Default auto-steer toggle (plus _THRESHOLD)
//	KONAN_DIFF_EXPLAINABILITY - Default diff explainability toggle
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unbound-computer/daemon-konan/config"
	"github.com/unbound-computer/daemon-konan/queue"
	"github.com/unbound-computer/daemon-konan/relay"
	"github.com/unbound-computer/daemon-konan/settings"
	"github.com/unbound-computer/daemon-konan/supervisor"
)

var (
	version = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	deviceID := flag.String("device-id", "", "Device ID (required)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("konan version %s\n", version)
		return nil
	}

	if *deviceID == "" {
		return fmt.Errorf("--device-id is required")
	}

	// Optional .env before config reads the environment.
	_ = godotenv.Load()

	logger, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting konan",
		zap.String("version", version),
		zap.String("device_id", *deviceID),
	)

	cfg, err := config.New(*deviceID)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	queueClient, err := queue.New(queue.Options{
		AblyKey:        cfg.AblyKey,
		PublishTimeout: cfg.PublishTimeout,
		Logger:         logger.Named("queue"),
	})
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}
	defer queueClient.Close()

	settingsClient := settings.NewClient(
		cfg.SettingsSocketPath,
		cfg.SettingsTimeout,
		logger.Named("settings"),
	)

	engine, err := supervisor.New(supervisor.Options{
		Queue:    queueClient,
		Settings: settingsClient,
		Defaults: &cfg.DefaultPolicy,
		Logger:   logger.Named("supervisor"),
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	r, err := relay.New(cfg, engine, logger.Named("relay"))
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := queueClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect queue client: %w", err)
	}

	if err := r.Run(ctx); err != nil {
		if err == relay.ErrShutdown {
			logger.Info("relay shutdown complete")
			return nil
		}
		return fmt.Errorf("relay error: %w", err)
	}

	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: debug,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}
