package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/linea/internal/app"
	"github.com/deusflow/linea/internal/config"
	"github.com/deusflow/linea/internal/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init("lineanews")

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("init app", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close app", slog.Any("err", err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		log.Error("app stopped", slog.Any("err", err))
		stop()
		a.Close()
		os.Exit(1)
	}
}
