package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/server/auth"
	"github.com/Racej255/CrosslandApocalypse/internal/server/config"
	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("no JWT secret configured (-j or jwt_secret)")

// NewRootCommand builds the server command tree. Running it without a
// subcommand serves.
func NewRootCommand(cfg *config.Config, logger logging.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "archive-server",
		Short:         "Crossland journal archive server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg, logger)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the archive API, static files and the health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg, logger)
		},
	})

	root.AddCommand(newMintKeyCommand(cfg))

	return root
}

func serve(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}

func newMintKeyCommand(cfg *config.Config) *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint-key",
		Short: "Print an API key signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.JWTSecret == "" {
				return errNoSecret
			}
			key, err := auth.GenerateToken(role, []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}

	cmd.Flags().StringVar(&role, "role", "anon", "role claim of the key")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "key lifetime; 0 never expires")

	return cmd
}
