// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Local opens one file from the local disk, or standard input for Stdin.
type Local struct {
	path  string
	stdin io.Reader
}

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path, stdin: os.Stdin} }

// NewStdin returns a Stdin source that reads r instead of os.Stdin.
func NewStdin(r io.Reader) *Local { return &Local{path: Stdin, stdin: r} }

// Name returns the file's base name, or "-" for standard input.
func (l *Local) Name() string {
	if l.path == Stdin {
		return Stdin
	}
	return filepath.Base(l.path)
}

// Open returns the context error when ctx is already done; otherwise it opens
// the file. Filesystem errors keep their identity for errors.Is (e.g.
// os.ErrNotExist). Closing a stdin source does not close os.Stdin.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == Stdin {
		return io.NopCloser(l.stdin), nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
