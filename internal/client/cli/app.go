package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/audit"
	"github.com/Racej255/CrosslandApocalypse/internal/client/backend"
	"github.com/Racej255/CrosslandApocalypse/internal/client/client"
	"github.com/Racej255/CrosslandApocalypse/internal/client/config"
	"github.com/Racej255/CrosslandApocalypse/internal/client/dataset"
	"github.com/Racej255/CrosslandApocalypse/internal/client/journal"
	"github.com/Racej255/CrosslandApocalypse/internal/client/localstate"
	"github.com/Racej255/CrosslandApocalypse/internal/client/normalize"
	"github.com/Racej255/CrosslandApocalypse/internal/client/repositories/metadata"
	"github.com/Racej255/CrosslandApocalypse/internal/client/seed"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
)

type Mode string

const (
	ModeREST    Mode = "rest"
	ModeArchive Mode = "archive"
	ModeLocal   Mode = "local"
)

const closeTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	journal *journal.Journal
	audit   *audit.Writer
	Mode    Mode

	reader  *bufio.Reader
	out     io.Writer
	prompts io.Writer

	// current is the entry last opened, the anchor for next/prev.
	current string

	auditFailures atomic.Int64
	done          chan struct{}
}

// NewApp opens the local state database and wires the backend selected by
// c. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	norm := normalize.New()
	state := localstate.New(metadata.NewSQLiteRepository(db), norm)
	opts := backend.Options{
		APIKey:     c.APIKey,
		HTTPClient: &http.Client{Timeout: c.RequestTimeout},
		Logger:     logger,
		Normalizer: norm,
	}

	var (
		be     backend.Backend
		sink   audit.Sink        = state
		logs   journal.LogSource = journal.LogFunc(state.LoadLog)
		seeder journal.Seeder
	)
	mode := Mode(c.Mode())
	switch mode {
	case ModeREST:
		opts.BaseURL = c.RemoteURL
		rest := backend.NewREST(opts)
		be, sink, logs = rest, rest, journal.LogFunc(rest.ListLog)
		seeder = seed.NewCoordinator(rest, dataset.NewLoader(c.DatasetDir, norm), state, logger)
	case ModeArchive:
		// The archive server keeps its own log; the local one is a client copy.
		opts.BaseURL = c.ArchiveURL
		be = backend.NewArchive(opts)
	default:
		be = backend.NewLocal(state, logger)
	}

	w := audit.NewWriter(sink, logger, audit.WithTimeout(c.RequestTimeout))
	j := journal.New(journal.Options{
		Backend:      be,
		Audit:        w,
		Log:          logs,
		Snapshot:     state,
		Seeder:       seeder,
		OfflineEdits: c.OfflineEdits,
		Logger:       logger,
	})

	prompts := io.Discard
	if isTerminal(int(os.Stdin.Fd())) {
		prompts = os.Stdout
	}

	a := &App{
		config:  c,
		logger:  logger,
		db:      db,
		journal: j,
		audit:   w,
		Mode:    mode,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		prompts: prompts,
		done:    make(chan struct{}),
	}
	go a.watchAudit()
	return a, nil
}

// Start runs the one-time seed, then loads the working set.
func (a *App) Start(ctx context.Context) {
	if res := a.journal.Seed(ctx); !res.Skipped {
		a.printResult("seed", res)
	}
	a.journal.Load(ctx)
}

// Run starts the journal and blocks in the interactive shell.
func (a *App) Run(ctx context.Context) {
	a.Start(ctx)
	a.Root(ctx)
}

// Close flushes queued audit records and closes the database.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	if err := a.audit.Close(ctx); err != nil {
		a.logger.Warn(ctx, "audit records not flushed", "error", err)
	}
	close(a.done)
	return a.db.Close()
}

func (a *App) watchAudit() {
	for {
		select {
		case <-a.audit.Errors():
			a.auditFailures.Add(1)
		case <-a.done:
			return
		}
	}
}

func (a *App) SetIO(in io.Reader, out, prompts io.Writer) {
	a.reader = bufio.NewReader(in)
	a.out = out
	a.prompts = prompts
}
