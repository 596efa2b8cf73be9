package config

import (
	"flag"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
)

// FlagNames lists the flags owned by the config layer. Command dispatch must
// not see them; see flagx.StripArgs.
var FlagNames = []string{"-r", "-k", "-a", "-d", "-s", "-t", "-l"}

// parseFlags populates Config fields from command-line flags.
//
//	-r string    remote store base URL
//	-k string    remote store API key
//	-a string    companion archive server base URL
//	-d string    local state database path
//	-s string    seed dataset directory
//	-t duration  request timeout, e.g. 5s
//	-l string    log level (debug, info, warn, error)
//
// os.Args is filtered with flagx.FilterArgs so subcommand arguments do not
// reach this flag set.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], FlagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteURL, "r", cfg.RemoteURL, "remote store base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "remote store API key")
	fs.StringVar(&cfg.ArchiveURL, "a", cfg.ArchiveURL, "archive server base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local state database path")
	fs.StringVar(&cfg.DatasetDir, "s", cfg.DatasetDir, "seed dataset directory")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
