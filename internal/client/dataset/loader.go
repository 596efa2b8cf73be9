package dataset

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/client/normalize"
	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

const (
	EntriesFile = "entries.json"
	LogFile     = "entries-log.json"
)

//go:embed bundled/*.json
var bundled embed.FS

// Loader reads the seed datasets from a directory, or from the copies built
// into the binary.
//
// A missing file means "no data": both methods return (nil, nil). Malformed
// JSON is reported as *common.ParseError so the caller can log it before
// treating it the same way.
type Loader struct {
	fsys fs.FS
	norm *normalize.Normalizer
}

// NewLoader reads from dir, or from the bundled datasets when dir is empty.
func NewLoader(dir string, norm *normalize.Normalizer) *Loader {
	if norm == nil {
		norm = normalize.New()
	}
	if dir == "" {
		sub, _ := fs.Sub(bundled, "bundled")
		return &Loader{fsys: sub, norm: norm}
	}
	return &Loader{fsys: os.DirFS(dir), norm: norm}
}

// NewFSLoader reads datasets from an arbitrary file system.
func NewFSLoader(fsys fs.FS, norm *normalize.Normalizer) *Loader {
	if norm == nil {
		norm = normalize.New()
	}
	return &Loader{fsys: fsys, norm: norm}
}

func (l *Loader) Entries(ctx context.Context) ([]models.Entry, error) {
	var raws []models.RawEntry
	ok, err := l.read(EntriesFile, &raws)
	if !ok || err != nil {
		return nil, err
	}
	return l.norm.Entries(raws), nil
}

func (l *Loader) Log(ctx context.Context) ([]models.LogRecord, error) {
	var raws []models.RawLogRecord
	ok, err := l.read(LogFile, &raws)
	if !ok || err != nil {
		return nil, err
	}
	// Dataset records without an action are imports.
	for i := range raws {
		if raws[i].Action == "" {
			raws[i].Action = models.ActionImport
		}
	}
	return l.norm.LogRecords(raws), nil
}

func (l *Loader) read(name string, v any) (bool, error) {
	b, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &common.ParseError{Source: name, Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, &common.ParseError{Source: name, Err: err}
	}
	return true, nil
}
