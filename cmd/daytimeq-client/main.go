package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"daytimeq/pkg/config"
	"daytimeq/pkg/daytime"
	"daytimeq/pkg/netstack"
	"daytimeq/pkg/observability"
)

const progName = "daytimeq-client"

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s host port\n", progName)
		return 1
	}
	host, port := fs.Arg(0), fs.Arg(1)

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

	sess := daytime.NewClient(tr, nil, os.Stdout, logger)
	if err := sess.Run(context.Background(), host, port); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return 1
	}
	return 0
}
