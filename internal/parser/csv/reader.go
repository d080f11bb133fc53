// Package csv reads delimited text uploads into raw rows.
//
// The first non-blank line is the header; each later line becomes one
// records.Record keyed by the trimmed header text (key canonicalization is
// the pipeline's job). Blank lines are skipped, short
// rows are padded with nil and cells beyond the header are dropped.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"studentetl/internal/config"
	"studentetl/pkg/records"
)

// ErrNoHeader is returned for input without a single non-blank line.
var ErrNoHeader = errors.New("csv: no header row")

// Options configures ReadRows. The zero value reads comma-separated UTF-8.
type Options struct {
	// Comma is the field delimiter; 0 means ','.
	Comma rune

	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool

	// TrimSpace trims leading/trailing whitespace from every value.
	TrimSpace bool

	// Encoding names the input character set using WHATWG labels
	// ("windows-1252", "latin1", "utf-16le", ...). Empty means UTF-8. A
	// byte-order mark always takes precedence.
	Encoding string

	// OnRowError, when set, receives soft row problems (a malformed line, or
	// cells beyond the header). line is 1-based and counts the header.
	OnRowError func(line int, err error)
}

// OptionsFrom reads parser options from a config options bag:
//
//	comma (string), lazy_quotes (bool), trim_space (bool), encoding (string)
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		LazyQuotes: o.Bool("lazy_quotes", false),
		TrimSpace:  o.Bool("trim_space", false),
		Encoding:   o.String("encoding", ""),
	}
}

// ctxCheckEvery bounds how many lines are read between context checks.
const ctxCheckEvery = 1024

// ReadRows parses all of r. Malformed lines are reported through
// opt.OnRowError and skipped; only I/O failures, an unknown encoding, a
// missing header and context cancellation are returned as errors.
func ReadRows(ctx context.Context, r io.Reader, opt Options) ([]records.Record, error) {
	dec, err := decoder(opt.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(dec)))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	report := func(line int, err error) {
		if opt.OnRowError != nil {
			opt.OnRowError(line, err)
		}
	}

	var header []string
	out := []records.Record{}
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report(perr.StartLine, err)
				continue
			}
			return nil, fmt.Errorf("csv: read: %w", err)
		}
		if records.Blank(cells) {
			continue
		}
		line, _ := cr.FieldPos(0)

		if opt.TrimSpace {
			for i, c := range cells {
				cells[i] = strings.TrimSpace(c)
			}
		}

		if header == nil {
			header = StripHeaderBOM(append([]string(nil), cells...))
			for i, h := range header {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}

		rec, extra := records.FromCells(header, cells)
		if extra > 0 {
			report(line, fmt.Errorf("csv: %d cells beyond the %d header columns dropped", extra, len(header)))
		}
		out = append(out, rec)
	}

	if header == nil {
		return nil, ErrNoHeader
	}
	return out, nil
}

// decoder resolves an encoding label; "" and "utf-8" decode UTF-8 and
// replace invalid bytes with U+FFFD.
func decoder(label string) (transform.Transformer, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", label, err)
	}
	return enc.NewDecoder(), nil
}
