// Package parser picks and configures the reader for an upload.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"studentetl/internal/config"
	"studentetl/internal/parser/csv"
	"studentetl/internal/parser/xlsx"
	"studentetl/pkg/records"
)

// Kind names an input format.
type Kind string

const (
	CSV  Kind = "csv"
	XLSX Kind = "xlsx"
)

// ErrUnknownKind is returned when no reader matches a kind or file name.
var ErrUnknownKind = errors.New("parser: unsupported input format")

// Parser reads one upload into raw rows keyed by header text.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) ([]records.Record, error)
}

// Func adapts a function to Parser.
type Func func(ctx context.Context, r io.Reader) ([]records.Record, error)

func (f Func) Parse(ctx context.Context, r io.Reader) ([]records.Record, error) { return f(ctx, r) }

// KindFromPath maps a file extension to a Kind. ".txt" and ".tsv" read as
// CSV; the delimiter still comes from the options.
func KindFromPath(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return CSV, nil
	case ".xlsx", ".xlsm":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Resolve returns explicit when set, else the kind implied by name.
func Resolve(explicit, name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(explicit))); k {
	case "":
		return KindFromPath(name)
	case CSV, XLSX:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, explicit)
	}
}

// New returns the reader for kind configured from opts (see
// config.Parser.Bag). onRowError may be nil; it receives soft problems with
// the 1-based line or row number.
func New(kind Kind, opts config.Options, onRowError func(n int, err error)) (Parser, error) {
	switch kind {
	case CSV:
		o := csv.OptionsFrom(opts)
		o.OnRowError = onRowError
		return Func(func(ctx context.Context, r io.Reader) ([]records.Record, error) {
			return csv.ReadRows(ctx, r, o)
		}), nil
	case XLSX:
		o := xlsx.Options{Sheet: opts.String("sheet", ""), OnRowError: onRowError}
		return Func(func(ctx context.Context, r io.Reader) ([]records.Record, error) {
			return xlsx.ReadRows(ctx, r, o)
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
