// Command twitch-timeouts overlays chat moderation events onto a live chat page.
// It:
//   - Loads configuration and initializes structured logging.
//   - Hosts the chat page and streams its changes to viewers.
//   - Reads the Twitch chat relay as an anonymous guest, mirroring chat lines
//     and annotating timeouts, bans and deleted messages inline.
//   - Follows room changes reported via POST /navigate or a polled URL file.
//   - Exposes /healthz, /readyz, /status and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/twitch-timeouts/chat"
	"github.com/onnwee/twitch-timeouts/config"
	"github.com/onnwee/twitch-timeouts/navigation"
	"github.com/onnwee/twitch-timeouts/page"
	"github.com/onnwee/twitch-timeouts/presenter"
	"github.com/onnwee/twitch-timeouts/server"
	"github.com/onnwee/twitch-timeouts/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("twitch-timeouts", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	title := "twitch-timeouts"
	if channel, ok := navigation.ChannelFromURL(cfg.PageURL); ok {
		title = "#" + channel
	}
	pg, err := page.New(title, cfg.Scrollback)
	if err != nil {
		slog.Error("failed to build chat page", slog.Any("err", err))
		os.Exit(1)
	}

	hub := navigation.NewHub()
	if cfg.NavURLFile != "" {
		slog.Info("polling page url", slog.String("file", cfg.NavURLFile), slog.Duration("interval", cfg.NavPollInterval))
		go hub.Poll(ctx, cfg.NavPollInterval, func() (string, error) {
			b, err := os.ReadFile(cfg.NavURLFile)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		})
	}

	reader := chat.NewReader(chat.Config{
		URL:               cfg.ChatURL,
		Navigation:        hub.C(),
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
	}, presenter.New(pg), pg)
	go func() {
		if err := reader.Run(ctx, cfg.PageURL); err != nil {
			slog.Error("chat reader stopped", slog.Any("err", err), slog.String("component", "chat"))
		}
	}()

	h := server.NewHandlers(ctx, pg, reader, hub)
	go func() {
		if err := server.Start(ctx, h, cfg.HTTPAddr, cfg.NavigateToken); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
			stop()
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
