package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"buckeuchre/internal/auth"
	"buckeuchre/internal/server"
	"buckeuchre/internal/statistics"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"buckeuchre.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Address to bind to (overrides config)"`
	Port     int    `short:"p" long:"port" help:"Port to listen on (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Dev      bool   `long:"dev" help:"Enable development endpoints (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Dev {
		cfg.Server.DevEndpoints = true
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var validator auth.Validator
	if cfg.Server.AuthURL != "" {
		validator = auth.NewHTTPValidator(cfg.Server.AuthURL)
		logger.Info("using remote token validation", "url", cfg.Server.AuthURL)
	} else {
		validator = auth.NewStaticValidator(nil)
		logger.Warn("no auth_url configured, accepting self-asserted identities")
	}

	sink, err := buildSink(runCtx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize statistics backend", "err", err)
		ctx.Exit(1)
	}
	defer sink.Close()

	srv := server.New(cfg, server.Options{
		Logger:    logger,
		Validator: validator,
		Sink:      sink,
	})

	logger.Info("starting buck euchre server",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		"abandon", cfg.Server.AbandonPolicy,
		"stats", cfg.Statistics.Backend)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Lobby().Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "err", err)
		ctx.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildSink(ctx context.Context, cfg *server.Config, logger *log.Logger) (statistics.Sink, error) {
	switch cfg.Statistics.Backend {
	case "", "none":
		return statistics.NopSink{}, nil
	case "postgres":
		return statistics.NewPostgresSink(ctx, cfg.Statistics.PostgresDSN, logger)
	case "kafka":
		brokers := strings.Split(cfg.Statistics.KafkaBroker, ",")
		return statistics.NewKafkaSink(brokers, cfg.Statistics.KafkaTopic, logger)
	default:
		return nil, fmt.Errorf("unknown statistics backend %q", cfg.Statistics.Backend)
	}
}
