package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lysyi3m/rss-digest/app/cfg"
	"github.com/lysyi3m/rss-digest/app/config"
)

func main() {
	// A missing .env is normal in production
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: appCfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, appCfg); err != nil {
		slog.Error("Command failed", "command", appCfg.Command, "error", err)
		stop()
		os.Exit(1)
	}
}

func execute(ctx context.Context, appCfg *cfg.Cfg) error {
	slog.Info("Starting rss-digest", "command", appCfg.Command, "version", appCfg.Version)

	conf, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return err
	}

	switch appCfg.Command {
	case "run":
		return runDigest(ctx, conf)
	case "report":
		return generateReport(ctx, conf)
	case "notify":
		return sendNotification(ctx, conf)
	case "preview":
		return servePreview(ctx, appCfg, conf)
	default:
		return errors.New("unknown command " + appCfg.Command)
	}
}
