package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	err   error
}

func (f *fakeExec) call(name string, args ...string) error {
	if len(args) > 0 {
		name += " " + args[0]
	}
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeExec) List(ctx context.Context) error { return f.call("list") }
func (f *fakeExec) Show(ctx context.Context, id string) error { return f.call("show", id) }
func (f *fakeExec) Open(ctx context.Context, id string) error { return f.call("open", id) }
func (f *fakeExec) Next(ctx context.Context) error { return f.call("next") }
func (f *fakeExec) Prev(ctx context.Context) error { return f.call("prev") }
func (f *fakeExec) Add(ctx context.Context) error { return f.call("add") }
func (f *fakeExec) Edit(ctx context.Context, id string) error { return f.call("edit", id) }
func (f *fakeExec) ToggleRead(ctx context.Context, id string) error { return f.call("read", id) }
func (f *fakeExec) Delete(ctx context.Context, id string) error { return f.call("delete", id) }
func (f *fakeExec) Filter(ctx context.Context) error { return f.call("filter") }
func (f *fakeExec) Log(ctx context.Context) error { return f.call("log") }
func (f *fakeExec) Seed(ctx context.Context) error { return f.call("seed") }
func (f *fakeExec) Sync(ctx context.Context, withLog bool) error {
	return f.call("sync", fmt.Sprint(withLog))
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := rdr("help\nlist\nshow e1\nopen e2\nnext\nprev\nadd\nedit e3\nread e4\ndelete e1\nfilter\nlog\nseed\nsync\nsync log\nfoobar\nexit\nlist\n")
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "status" }, input)

	assert.Equal(t, []string{
		"list", "show e1", "open e2", "next", "prev", "add", "edit e3", "read e4",
		"delete e1", "filter", "log", "seed", "sync false", "sync true",
	}, exec.calls)
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("open\n\nquit\n"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Usage: open <id>\n")
	assert.Contains(t, *lines, "Bye!\n")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("list\nlog"))

	assert.Equal(t, []string{"list", "log"}, exec.calls)
	assert.Contains(t, *lines, "Error: boom\n")
}

func TestRunREPL_StopsOnCancel(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, rdr("list\n"))

	assert.Empty(t, exec.calls)
}
