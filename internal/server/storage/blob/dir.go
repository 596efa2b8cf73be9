package blob

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Racej255/CrosslandApocalypse/internal/filex"
)

// Dir keeps documents as files in a directory.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// Put replaces the document atomically.
func (d *Dir) Put(_ context.Context, name string, data []byte) error {
	return filex.WriteAtomic(d.root, name, data)
}

// Ping checks that the directory exists or can be created.
func (d *Dir) Ping(_ context.Context) error {
	return filex.EnsureDir(d.root)
}
