package main

import (
	"flag"
	"fmt"
	"strconv"

	"maelstrom-node/broadcast"
	"maelstrom-node/internal/transport"
)

type config struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
	Topology    broadcast.Strategy
	ReplyErrors bool
	MaxLineSize int
}

// parseConfig reads flags, falling back to NODE_* environment variables and
// then to defaults.
func parseConfig(args []string, getenv func(string) string) (config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	replyErrors, err := strconv.ParseBool(env("NODE_REPLY_ERRORS", "false"))
	if err != nil {
		return config{}, fmt.Errorf("NODE_REPLY_ERRORS: %w", err)
	}
	maxLineSize, err := strconv.Atoi(env("NODE_MAX_LINE", strconv.Itoa(transport.DefaultMaxLineSize)))
	if err != nil {
		return config{}, fmt.Errorf("NODE_MAX_LINE: %w", err)
	}

	var cfg config
	var topology string
	fs := flag.NewFlagSet("maelstrom-node", flag.ContinueOnError)
	fs.StringVar(&cfg.LogLevel, "log-level", env("NODE_LOG_LEVEL", "info"), "log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", env("NODE_LOG_FORMAT", "console"), "log encoding: console or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", env("NODE_METRICS_ADDR", ""), "serve /metrics on this address when set")
	fs.StringVar(&topology, "topology", env("NODE_TOPOLOGY", string(broadcast.TopologyGiven)), "neighbour strategy: given or tree")
	fs.BoolVar(&cfg.ReplyErrors, "reply-errors", replyErrors, "answer unsupported requests with an error body")
	fs.IntVar(&cfg.MaxLineSize, "max-line", maxLineSize, "maximum size of an inbound record in bytes")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.Topology, err = broadcast.ParseStrategy(topology); err != nil {
		return config{}, err
	}
	if cfg.MaxLineSize <= 0 {
		return config{}, fmt.Errorf("max-line must be positive, got %d", cfg.MaxLineSize)
	}
	return cfg, nil
}
