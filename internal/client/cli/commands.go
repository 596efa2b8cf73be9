package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/normalize"
	"github.com/Racej255/CrosslandApocalypse/internal/client/seed"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

// List prints the visible entries in navigation order. Unread entries are
// marked with '*'.
func (a *App) List(ctx context.Context) error {
	entries := a.journal.Store().VisibleEntries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(a.out, summary(e))
	}
	return nil
}

// Show prints one entry without changing it.
func (a *App) Show(ctx context.Context, id string) error {
	e, err := a.journal.Entry(id)
	if err != nil {
		return err
	}
	a.printEntry(e)
	return nil
}

// Open prints one entry and marks it read.
func (a *App) Open(ctx context.Context, id string) error {
	e, err := a.journal.Open(ctx, id)
	if err != nil {
		return err
	}
	a.current = e.ID
	a.printEntry(e)
	return nil
}

func (a *App) Next(ctx context.Context) error { return a.step(ctx, true) }
func (a *App) Prev(ctx context.Context) error { return a.step(ctx, false) }

// step opens the neighbour of the current entry, or the first (last) entry
// when none is open yet.
func (a *App) step(ctx context.Context, forward bool) error {
	st := a.journal.Store()
	if a.current == "" {
		order := st.NavigationOrder()
		if len(order) == 0 {
			fmt.Fprintln(a.out, "No entries.")
			return nil
		}
		if forward {
			return a.Open(ctx, order[0].ID)
		}
		return a.Open(ctx, order[len(order)-1].ID)
	}

	prev, next, ok := st.Neighbors(a.current)
	if !ok {
		a.current = ""
		return a.step(ctx, forward)
	}
	target := next
	if !forward {
		target = prev
	}
	if target == nil {
		fmt.Fprintln(a.out, "No more entries in that direction.")
		return nil
	}
	return a.Open(ctx, target.ID)
}

// Add collects a new entry. The body is typed as plain text, one paragraph
// per line.
func (a *App) Add(ctx context.Context) error {
	var d models.Draft
	var err error

	if d.Name, err = GetSimpleText(a.reader, "Author", a.prompts); err != nil {
		return err
	}
	if d.Date, err = GetDefaultText(a.reader, "Date (YYYY-MM-DD)", time.Now().UTC().Format(common.DateLayout), a.prompts); err != nil {
		return err
	}
	if d.Title, err = GetSimpleText(a.reader, "Title", a.prompts); err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Entry text", a.prompts)
	if err != nil {
		return err
	}
	d.ContentHTML = normalize.TextToHTML(text)

	e, err := a.journal.Create(ctx, d)
	if a.offlineOnly(e, err) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created", e.ID)
	return nil
}

// Edit rewrites an entry; empty answers keep the current values and the read
// flag is preserved.
func (a *App) Edit(ctx context.Context, id string) error {
	cur, err := a.journal.Entry(id)
	if err != nil {
		return err
	}
	d := models.DraftOf(cur)

	if d.Name, err = GetDefaultText(a.reader, "Author", cur.Name, a.prompts); err != nil {
		return err
	}
	if d.Date, err = GetDefaultText(a.reader, "Date (YYYY-MM-DD)", cur.Date, a.prompts); err != nil {
		return err
	}
	if d.Title, err = GetDefaultText(a.reader, "Title", cur.Title, a.prompts); err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Entry text (empty keeps the current text)", a.prompts)
	if err != nil {
		return err
	}
	if text != "" {
		d.ContentHTML = normalize.TextToHTML(text)
	}

	e, err := a.journal.Update(ctx, id, d)
	if a.offlineOnly(e, err) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated", e.ID)
	return nil
}

func (a *App) ToggleRead(ctx context.Context, id string) error {
	e, err := a.journal.ToggleRead(ctx, id)
	if a.offlineOnly(e, err) {
		return nil
	}
	if err != nil {
		return err
	}
	state := "unread"
	if e.Read {
		state = "read"
	}
	fmt.Fprintf(a.out, "%s marked %s\n", e.ID, state)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	cur, err := a.journal.Entry(id)
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete %q?", cur.Title), a.prompts) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	e, err := a.journal.Delete(ctx, id)
	if a.offlineOnly(e, err) {
		return nil
	}
	if err != nil {
		return err
	}
	if a.current == id {
		a.current = ""
	}
	fmt.Fprintln(a.out, "Deleted", e.ID)
	return nil
}

func (a *App) Filter(ctx context.Context) error {
	if a.journal.Store().ToggleFilterUnread() {
		fmt.Fprintln(a.out, "Showing unread entries only.")
	} else {
		fmt.Fprintln(a.out, "Showing all entries.")
	}
	return nil
}

// Log prints the audit log, oldest first.
func (a *App) Log(ctx context.Context) error {
	records, err := a.journal.Log(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "Log is empty.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintln(a.out, logLine(r))
	}
	return nil
}

func (a *App) Seed(ctx context.Context) error {
	a.printResult("seed", a.journal.Seed(ctx))
	return nil
}

func (a *App) Sync(ctx context.Context, withLog bool) error {
	a.printResult("sync", a.journal.Sync(ctx, withLog))
	return nil
}

// offlineOnly reports a local-fallback mutation that was kept in the working
// set only.
func (a *App) offlineOnly(e models.Entry, err error) bool {
	if err == nil || e.ID == "" || !errors.Is(err, common.ErrLocalFallback) {
		return false
	}
	fmt.Fprintf(a.out, "%s changed locally only; no remote store is configured\n", e.ID)
	return true
}

func (a *App) printResult(op string, res seed.Result) {
	if res.Skipped {
		fmt.Fprintf(a.out, "%s skipped: %s\n", op, res.Reason)
		return
	}
	fmt.Fprintf(a.out, "%s: %d entries upserted, %d log records appended\n", op, res.EntriesUpserted, res.LogAppended)
	if err := res.Err(); err != nil {
		fmt.Fprintf(a.out, "%s finished with errors: %v\n", op, err)
	}
}

func (a *App) printEntry(e models.Entry) {
	fmt.Fprintf(a.out, "%s\n%s by %s (%s)\n\n%s\n", e.Title, e.Date, e.Name, e.ID, bodyText(e.ContentHTML))
}

func summary(e models.Entry) string {
	mark := " "
	if !e.Read {
		mark = "*"
	}
	return fmt.Sprintf("%s %s  %-36s  %s (%s)", mark, e.Date, e.ID, e.Title, e.Name)
}

func logLine(r models.LogRecord) string {
	ts := r.Timestamp.UTC().Format(time.RFC3339)
	switch {
	case r.Action == models.ActionUpdate && r.Before != nil && r.After != nil:
		return fmt.Sprintf("%s  %-6s  %s  %q -> %q", ts, r.Action, r.After.ID, r.Before.Title, r.After.Title)
	case r.Entry != nil:
		return fmt.Sprintf("%s  %-6s  %s  %q", ts, r.Action, r.Entry.ID, r.Entry.Title)
	default:
		return fmt.Sprintf("%s  %-6s", ts, r.Action)
	}
}

// bodyText renders paragraphs as blank-line separated plain text.
func bodyText(html string) string {
	html = strings.ReplaceAll(html, "</p>", "</p>\n\n")
	return models.PlainText(html)
}
