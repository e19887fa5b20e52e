package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/h1feed/hacktivity-relay/app/api"
	"github.com/h1feed/hacktivity-relay/app/cfg"
	"github.com/h1feed/hacktivity-relay/app/config"
	"github.com/h1feed/hacktivity-relay/app/cursor"
	"github.com/h1feed/hacktivity-relay/app/feed"
	"github.com/h1feed/hacktivity-relay/app/notify"
	"github.com/h1feed/hacktivity-relay/app/source"
	"github.com/h1feed/hacktivity-relay/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Hacktivity Relay", "version", appCfg.Version)

	if appCfg.WebhookURL == "" {
		slog.Error("No webhook URL configured, set DISCORD_WEBHOOK_URL or pass --webhook-url")
		os.Exit(1)
	}

	profile, err := config.Load(appCfg.ConfigFile)
	if err != nil {
		slog.Error("Failed to load source profile", "file", appCfg.ConfigFile, "error", err)
		os.Exit(1)
	}

	store, err := cursor.Open(appCfg.StateDriver, appCfg.StatePath)
	if err != nil {
		slog.Error("Failed to open cursor store", "driver", appCfg.StateDriver, "path", appCfg.StatePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	httpClient := &http.Client{}

	src, err := buildSource(httpClient, profile, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to initialize source", "error", err)
		os.Exit(1)
	}
	slog.Info("Source initialized", "kind", profile.Source.Kind, "window", profile.Source.WindowSize)

	notifier := notify.NewDiscord(httpClient, appCfg.WebhookURL, &profile.Notify)
	detector := feed.NewDetector()

	var preview *feed.PreviewExtractor
	if profile.Notify.ExtractPreview {
		preview = feed.NewPreviewExtractor(profile.Notify.PreviewMaxChars)
		slog.Info("Preview extraction enabled", "max_chars", profile.Notify.PreviewMaxChars)
	}

	sched := tasks.NewScheduler(src, detector, notifier, store, preview,
		httpClient, appCfg.UserAgent, profile.Source.GetTimeout(),
		time.Duration(appCfg.PollInterval)*time.Second, appCfg.Once, appCfg.ForceResend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Single run mode skips the HTTP server entirely
	if appCfg.Once {
		sched.Run(ctx)
		return
	}

	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	// Initialize HTTP server
	apiHandler := api.NewHandler(sched)
	router := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("Server failed", "error", err)
		stop()
	}

	// Graceful shutdown: the scheduler finishes its in-flight cycle, the
	// HTTP server drains open connections
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	<-schedDone

	slog.Info("Shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func buildSource(httpClient *http.Client, profile *config.Profile, userAgent string) (source.Source, error) {
	switch profile.Source.Kind {
	case config.KindHacktivity:
		return source.NewHacktivity(httpClient, profile.Source.URL, profile.Source.WindowSize, profile.Source.GetTimeout(), userAgent), nil
	case config.KindRSS:
		return source.NewRSS(httpClient, profile.Source.URL, profile.Source.WindowSize, profile.Source.GetTimeout(), userAgent), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", profile.Source.Kind)
	}
}
