package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/oakmud/chatd/internal/app"
	"github.com/oakmud/chatd/internal/config"
	"github.com/oakmud/chatd/internal/log"
)

func main() {
	var (
		configPath string
		checkOnly  bool
	)
	flag.StringVar(&configPath, "config", "", "path to the config file")
	flag.BoolVar(&checkOnly, "check", false, "validate channel configuration and exit")
	flag.Parse()

	logger := log.New("info")

	cfg, resolvedPath, err := config.Load(logger, configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", resolvedPath).Msg("cannot load config")
	}
	logger = log.New(cfg.LogLevel)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start chat subsystem")
	}

	if checkOnly {
		logger.Info().Msg("channel configuration ok")
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("chat subsystem exited with error")
	}
}
