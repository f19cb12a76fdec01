// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/textrelay/lib/chunk"
	"github.com/bureau-foundation/textrelay/lib/diag"
	"github.com/bureau-foundation/textrelay/lib/version"
	"github.com/bureau-foundation/textrelay/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	configPath    string
	logFile       string
	keepLog       bool
	metricsListen string
	verbose       bool
	showVersion   bool
	help          bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("textrelay", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML or JSONC file with defaults for the bootstrap configuration")
	flagSet.StringVar(&opts.logFile, "log-file", "", "append diagnostics to this file (default: a temporary file removed at exit)")
	flagSet.BoolVar(&opts.keepLog, "keep-log", false, "keep the temporary diagnostic log after exit")
	flagSet.StringVar(&opts.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log every relayed chunk")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	return flagSet
}

// parseFlags parses args. The returned FlagSet is used for help output.
func parseFlags(args []string) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, flagSet, nil
		}
		return opts, flagSet, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, flagSet, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, flagSet, nil
}

func run() error {
	opts, flagSet, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(flagSet)
		return nil
	}
	if opts.showVersion {
		version.Print(os.Stdout, "textrelay")
		return nil
	}

	config := defaultProcessConfig()
	if opts.configPath != "" {
		if config, err = loadConfigFile(opts.configPath); err != nil {
			return err
		}
	}

	sink, err := openSink(opts)
	if err != nil {
		return err
	}
	defer sink.Close()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := diag.NewLogger(sink, level)
	slog.SetDefault(logger)
	logger.Info("textrelay starting", "version", version.Info(), "log_file", sink.Path())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := newRegistry()
	metrics, err := relay.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	if opts.metricsListen != "" {
		server, err := serveMetrics(opts.metricsListen, registry, logger)
		if err != nil {
			return err
		}
		defer server.Close()
	}

	session := &relay.Session{
		Reader:    chunk.NewReader(stdinSource(os.Stdin)),
		Writer:    chunk.NewWriter(os.Stdout),
		Base:      &config.Base,
		Overrides: relay.EnvironmentOverrides(os.LookupEnv),
		OnConfig: func(ctx context.Context, final relay.Config) error {
			if !final.LogEnabled() {
				return nil
			}
			return sink.DialSide(ctx, final.LogAddress(), config.ConnectTimeout)
		},
		ConnectTimeout: config.ConnectTimeout,
		ShutdownGrace:  config.ShutdownGrace,
		Logger:         logger,
		Metrics:        metrics,
	}

	summary, err := session.Run(ctx)
	if err != nil {
		return err
	}
	if !summary.CleanShutdown {
		logger.Warn("exiting with the socket pump still running")
	}
	return nil
}

// openSink opens the diagnostic log. stdout carries the protocol, so
// diagnostics never go there.
func openSink(opts options) (*diag.Sink, error) {
	if opts.logFile != "" {
		return diag.OpenFile(opts.logFile)
	}
	return diag.OpenTemp("", "textrelay-", opts.keepLog)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `textrelay - relay a TCP connection over a line-oriented text channel

textrelay speaks a chunked text protocol on stdin/stdout. It announces
itself with the "ready!" command, reads one bootstrap chunk of key=value
lines (host, port, logPort, logHost), connects to host:port and relays
bytes in both directions until the text side sends "close!" or closes.

Configuration precedence, lowest first: built-in defaults, --config,
the bootstrap chunk, then TEXTRELAY_HOST, TEXTRELAY_PORT,
TEXTRELAY_LOG_HOST and TEXTRELAY_LOG_PORT.

Usage:
  textrelay [flags]

Examples:
  # Relay with diagnostics kept in a known file
  textrelay --log-file /tmp/textrelay.log

  # Fix the target regardless of the bootstrap chunk
  TEXTRELAY_HOST=db.internal TEXTRELAY_PORT=5432 textrelay

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
