package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"daytimeq/pkg/config"
	"daytimeq/pkg/daytime"
	"daytimeq/pkg/netstack"
	"daytimeq/pkg/observability"
	"daytimeq/pkg/transport"
)

const progName = "daytimeq-server"

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "path to YAML config file")
	concurrent := fs.Bool("concurrent", false, "serve each connection in its own goroutine")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s port\n", progName)
		return 1
	}
	port := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	tr, err := netstack.NewByKind(cfg.Transport.Kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cands, err := transport.NewResolver().Resolve(ctx, "", port, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	acc, err := netstack.Bind(ctx, tr, port, cands, cfg.Transport.Backlog, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	defer func() { _ = acc.Close() }()

	srv := daytime.NewServer(acc, nil, logger, daytime.ServerOptions{Concurrent: *concurrent})
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	return 0
}
