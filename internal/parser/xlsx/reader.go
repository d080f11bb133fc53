// Package xlsx reads spreadsheet uploads into raw rows with the same row
// semantics as the csv package: first non-blank row is the header, blank
// rows are skipped and short rows are padded with nil.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"studentetl/pkg/records"
)

// ErrNoHeader is returned for a sheet without a single non-blank row.
var ErrNoHeader = errors.New("xlsx: no header row")

// Options configures ReadRows.
type Options struct {
	// Sheet selects the worksheet by name; empty means the first sheet.
	Sheet string

	// OnRowError, when set, receives cells dropped beyond the header. row is
	// the 1-based spreadsheet row.
	OnRowError func(row int, err error)
}

// ReadRows loads the whole workbook from r and returns the rows of one sheet.
// Cell values are the formatted strings excelize reports.
func ReadRows(ctx context.Context, r io.Reader, opt Options) ([]records.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("xlsx: sheet %q not found (have %s)", sheet, strings.Join(f.GetSheetList(), ", "))
	}

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	defer it.Close()

	var header []string
	out := []records.Record{}
	for n := 1; it.Next(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q row %d: %w", sheet, n, err)
		}
		if records.Blank(cells) {
			continue
		}
		if header == nil {
			header = make([]string, len(cells))
			for i, c := range cells {
				header[i] = strings.TrimSpace(c)
			}
			continue
		}
		rec, extra := records.FromCells(header, cells)
		if extra > 0 && opt.OnRowError != nil {
			opt.OnRowError(n, fmt.Errorf("xlsx: %d cells beyond the %d header columns dropped", extra, len(header)))
		}
		out = append(out, rec)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("xlsx: sheet %q: %w", sheet, err)
	}
	if header == nil {
		return nil, ErrNoHeader
	}
	return out, nil
}
