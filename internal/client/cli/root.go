package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// AppFactory builds the App a command runs against. Commands Close it.
type AppFactory func(ctx context.Context) (*App, error)

// NewRootCommand creates the journal command tree. Without a subcommand the
// interactive shell starts.
func NewRootCommand(newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Crossland journal archive",
		Long: `Read and edit the Crossland journal archive.

Configuration flags (-r, -k, -a, -d, -s, -t, -l, -c) are read before the
command runs; see the config package for their meaning.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				a.Run(ctx)
				return nil
			})
		},
	}

	cmd.AddCommand(newShellCommand(newApp))
	cmd.AddCommand(newListCommand(newApp))
	cmd.AddCommand(newSeedCommand(newApp))
	cmd.AddCommand(newSyncCommand(newApp))
	cmd.AddCommand(newLogCommand(newApp))

	return cmd
}

func newShellCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				a.Run(ctx)
				return nil
			})
		},
	}
}

func newListCommand(newApp AppFactory) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in navigation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				a.Start(ctx)
				a.journal.Store().SetFilterUnread(unread)
				return a.List(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "show unread entries only")
	return cmd
}

func newSeedCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Bootstrap the remote store from the bundled datasets (once)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				return a.Seed(ctx)
			})
		},
	}
}

func newSyncCommand(newApp AppFactory) *cobra.Command {
	var withLog bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge the bundled datasets into the remote store",
		Long: `Upsert the bundled entries into the remote store by id, regardless of
whether the store was seeded before. With --with-log the bundled log is
appended too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				return a.Sync(ctx, withLog)
			})
		},
	}
	cmd.Flags().BoolVar(&withLog, "with-log", false, "also append the bundled log")
	return cmd
}

func newLogCommand(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(ctx context.Context, a *App) error {
				return a.Log(ctx)
			})
		},
	}
}

func withApp(cmd *cobra.Command, newApp AppFactory, fn func(context.Context, *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	a.out = cmd.OutOrStdout()
	return fn(ctx, a)
}
