// Package main provides the blindbox server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/blindbox/internal/api/httpapi"
	"github.com/osa030/blindbox/internal/app/game"
	"github.com/osa030/blindbox/internal/app/notify"
	"github.com/osa030/blindbox/internal/app/playback"
	"github.com/osa030/blindbox/internal/infra/config"
	"github.com/osa030/blindbox/internal/infra/logger"
	"github.com/osa030/blindbox/internal/infra/spotify"
)

var (
	app        = kingpin.New("blindbox-server", "blindbox blind-test server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. A separate function ensures defer
// statements execute even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}

	backend, budget, err := buildBackend(ctx, cfg, spotifyClient)
	if err != nil {
		return fmt.Errorf("failed to create playback backend: %w", err)
	}
	zlog.Info().Msgf("Playback backend: %s (listen window %v)", backend.Name(), budget)

	machine := game.NewMachine(spotifyClient, backend, budget, cfg.Game.QuestionCount, nil)
	defer machine.Close()

	notifyMgr := notify.NewManager()
	defer notifyMgr.Close()
	go notifyMgr.Pump(machine.Events())

	handler := httpapi.NewHandler(machine, notifyMgr)

	// h2c keeps the websocket upgrade on HTTP/1.1 while allowing HTTP/2
	// cleartext for the JSON endpoints behind a proxy.
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(handler.Router(), &http2.Server{}),
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zlog.Info().Msgf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildBackend constructs the configured playback backend and its listen window.
func buildBackend(ctx context.Context, cfg *config.Config, client *spotify.Client) (playback.Backend, time.Duration, error) {
	switch cfg.Playback.Type {
	case "device":
		settings, err := cfg.DeviceSettings()
		if err != nil {
			return nil, 0, err
		}
		backend, err := spotify.NewDeviceBackend(ctx, client, settings.DeviceID)
		if err != nil {
			return nil, 0, err
		}
		return backend, time.Duration(settings.ListenWindowSec) * time.Second, nil
	default:
		settings, err := cfg.PreviewSettings()
		if err != nil {
			return nil, 0, err
		}
		return playback.NewPreviewBackend(), time.Duration(settings.ListenWindowSec) * time.Second, nil
	}
}
