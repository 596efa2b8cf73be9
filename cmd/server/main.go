package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server"
	"github.com/Racej255/CrosslandApocalypse/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	root := server.NewRootCommand(cfg, logger)

	// Config flags were consumed by LoadConfig; cobra sees the rest.
	owned := append(append([]string{}, config.FlagNames...), flagx.ConfigFlagNames...)
	root.SetArgs(flagx.StripArgs(os.Args[1:], owned))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
