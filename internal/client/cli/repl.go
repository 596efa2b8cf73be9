package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Open(ctx context.Context, id string) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	ToggleRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Filter(ctx context.Context) error
	Log(ctx context.Context) error
	Seed(ctx context.Context) error
	Sync(ctx context.Context, withLog bool) error
}

const helpText = "Available commands: (l)ist, show <id>, open <id>, next, prev, add, edit <id>, read <id>, delete <id>, filter, log, seed, sync [log], exit"

// runREPL starts a simple read-eval-print loop over the journal.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that act on one entry take its id
// as the second token. The loop exits on EOF or when the user types "exit"
// or "quit".
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("journal %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		withID := func(fn func(context.Context, string) error) error {
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				return nil
			}
			return fn(ctx, args[0])
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "show":
			cmdErr = withID(a.Show)

		case "open":
			cmdErr = withID(a.Open)

		case "next", "n":
			cmdErr = a.Next(ctx)

		case "prev", "p":
			cmdErr = a.Prev(ctx)

		case "add":
			cmdErr = a.Add(ctx)

		case "edit":
			cmdErr = withID(a.Edit)

		case "read":
			cmdErr = withID(a.ToggleRead)

		case "delete", "rm":
			cmdErr = withID(a.Delete)

		case "filter":
			cmdErr = a.Filter(ctx)

		case "log":
			cmdErr = a.Log(ctx)

		case "seed":
			cmdErr = a.Seed(ctx)

		case "sync":
			cmdErr = a.Sync(ctx, len(args) > 0 && args[0] == "log")

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

func (a *App) getStatus() string {
	parts := []string{string(a.Mode)}
	if a.journal.Store().FilterUnread() {
		parts = append(parts, "unread")
	}
	if n := a.auditFailures.Load(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d audit failures", n))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Root runs the interactive shell until the user exits or ctx ends.
func (a *App) Root(ctx context.Context) {
	printlnFn("Crossland journal (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
