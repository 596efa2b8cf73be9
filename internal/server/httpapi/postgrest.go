package httpapi

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
)

// query holds the subset of PostgREST query parameters the table routes
// understand: select, id=eq.<id>, order=<column>[.asc|.desc] and limit.
type query struct {
	columns []string
	id      string
	hasID   bool
	order   string
	desc    bool
	limit   int
}

func parseQuery(v url.Values, known []string) (query, error) {
	q := query{limit: -1}

	if sel := strings.TrimSpace(v.Get("select")); sel != "" && sel != "*" {
		for _, c := range strings.Split(sel, ",") {
			c = strings.TrimSpace(c)
			if !slices.Contains(known, c) {
				return query{}, fmt.Errorf("%w: unknown column %q", errBadQuery, c)
			}
			q.columns = append(q.columns, c)
		}
	}

	if f, ok := v["id"]; ok {
		id, found := strings.CutPrefix(f[0], "eq.")
		if !found {
			return query{}, fmt.Errorf("%w: only eq filters are supported", errBadQuery)
		}
		q.id, q.hasID = id, true
	}

	if o := v.Get("order"); o != "" {
		col, dir, _ := strings.Cut(o, ".")
		if !slices.Contains(known, col) {
			return query{}, fmt.Errorf("%w: unknown order column %q", errBadQuery, col)
		}
		switch dir {
		case "", "asc":
		case "desc":
			q.desc = true
		default:
			return query{}, fmt.Errorf("%w: bad order direction %q", errBadQuery, dir)
		}
		q.order = col
	}

	if l := v.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return query{}, fmt.Errorf("%w: bad limit %q", errBadQuery, l)
		}
		q.limit = n
	}

	return q, nil
}

// project keeps the selected columns of each row.
func (q query) project(rows []map[string]any) []map[string]any {
	if q.limit >= 0 && len(rows) > q.limit {
		rows = rows[:q.limit]
	}
	if len(q.columns) == 0 {
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		p := make(map[string]any, len(q.columns))
		for _, c := range q.columns {
			p[c] = row[c]
		}
		out[i] = p
	}
	return out
}

var entryColumns = []string{"id", "name", "date", "title", "content_html", "read"}

func entryRow(e models.Entry) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"name":         e.Name,
		"date":         e.Date,
		"title":        e.Title,
		"content_html": e.ContentHTML,
		"read":         e.Read,
	}
}

func entryRows(entries []models.Entry) []map[string]any {
	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		rows[i] = entryRow(e)
	}
	return rows
}

func sortEntries(entries []models.Entry, col string, desc bool) {
	key := func(e models.Entry) string {
		switch col {
		case "name":
			return e.Name
		case "date":
			return e.Date
		case "title":
			return e.Title
		case "content_html":
			return e.ContentHTML
		case "read":
			return strconv.FormatBool(e.Read)
		}
		return e.ID
	}
	slices.SortStableFunc(entries, func(a, b models.Entry) int {
		c := cmp.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
}

var logColumns = []string{"id", "timestamp", "action", "entry", "before", "after"}

func logRow(r models.LogRecord) map[string]any {
	return map[string]any{
		"id":        r.ID,
		"timestamp": r.Timestamp,
		"action":    r.Action,
		"entry":     r.Entry,
		"before":    r.Before,
		"after":     r.After,
	}
}

func sortLog(records []models.LogRecord, col string, desc bool) {
	slices.SortStableFunc(records, func(a, b models.LogRecord) int {
		var c int
		switch col {
		case "timestamp":
			c = a.Timestamp.Compare(b.Timestamp)
		case "action":
			c = cmp.Compare(a.Action, b.Action)
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}

// prefers reports whether the Prefer header carries the given directive.
func prefers(header []string, directive string) bool {
	for _, h := range header {
		for _, p := range strings.Split(h, ",") {
			if strings.TrimSpace(p) == directive {
				return true
			}
		}
	}
	return false
}
