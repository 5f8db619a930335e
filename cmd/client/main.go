package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdrscore/client/internal/buildinfo"
	"github.com/mdrscore/client/internal/client/cli"
	"github.com/mdrscore/client/internal/client/config"
	"github.com/mdrscore/client/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
		buildinfo.PrintBuildData(os.Stderr)
	}
	// screens own stdout
	logger := logging.Setup(cfg.LogFormat, level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
