package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"maelstrom-node/internal/logging"
	"maelstrom-node/internal/telemetry"
	"maelstrom-node/internal/transport"
	"maelstrom-node/node"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", zap.String("addr", cfg.MetricsAddr), zap.Error(err))
			}
		}()
	}

	n := node.New(node.WithLogger(logger), node.WithTopology(cfg.Topology))
	opts := transport.Options{
		Logger:      logger,
		MaxLineSize: cfg.MaxLineSize,
		ReplyErrors: cfg.ReplyErrors,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- transport.Run(ctx, os.Stdin, os.Stdout, n, opts)
	}()

	logger.Info("node started", zap.String("topology", string(cfg.Topology)))
	select {
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("node", n.ID()))
		return nil
	case err := <-errc:
		if err != nil {
			logger.Error("transport failed", zap.Error(err))
			return err
		}
		logger.Info("input closed", zap.String("node", n.ID()))
		return nil
	}
}
