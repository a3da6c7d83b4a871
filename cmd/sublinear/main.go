package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/sockerless/sublinear"
	"github.com/sockerless/sublinear/store"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := sublinear.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sublinear: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "sublinear").Logger().
		Level(level)

	logger.Info().Str("version", version).Str("commit", commit).Msg("starting")

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		DatabaseURL: cfg.DatabaseURL,
		BaseURL:     cfg.BaseURL,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	shutdown, err := sublinear.InitTracer(ctx, cfg.TraceConfig(version, commit, st.Dialect().String()))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer shutdown(context.Background())

	if err := st.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate store")
	}
	if err := st.Seed(ctx, cfg.Seed); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed store")
	}

	srv, err := sublinear.NewServer(cfg, st, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
