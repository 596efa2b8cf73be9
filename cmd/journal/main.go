package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Racej255/CrosslandApocalypse/internal/client/cli"
	"github.com/Racej255/CrosslandApocalypse/internal/client/config"
	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(func(ctx context.Context) (*cli.App, error) {
		return cli.NewApp(ctx, cfg, logger)
	})

	// Config flags were consumed by LoadConfig; cobra sees the rest.
	owned := append(append([]string{}, config.FlagNames...), flagx.ConfigFlagNames...)
	root.SetArgs(flagx.StripArgs(os.Args[1:], owned))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}

}
