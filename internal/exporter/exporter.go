// Package exporter writes cleaned records as CSV, JSON or XLSX with a
// stable column order.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"studentetl/internal/schema"
	"studentetl/pkg/records"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for unsupported format names or extensions.
var ErrUnknownFormat = errors.New("exporter: unknown format")

// ParseFormat accepts "csv", "json" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: no extension in %q", ErrUnknownFormat, name)
	}
	return ParseFormat(ext)
}

// FileName is the download name for a dataset, e.g.
// "HighSchool_students_data.csv". A non-empty qualifier, such as the active
// filter, is appended: "HighSchool_students_data_excellent.csv".
func FileName(tag schema.Tag, f Format, qualifier string) string {
	label := tag.Label()
	if label == "" {
		label = "unrecognized"
	}
	name := label + "_students_data"
	if qualifier != "" {
		name += "_" + qualifier
	}
	return name + "." + string(f)
}

// ContentType returns the MIME type served for f.
func ContentType(f Format) string {
	switch f {
	case JSON:
		return "application/json"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Columns returns the export column order: the schema's required keys that
// occur in rows, in schema order, then every other key sorted.
func Columns(tag schema.Tag, rows []records.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for _, k := range schema.RequiredKeys(tag) {
		if _, ok := seen[k]; ok {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// FormatValue renders one cell: nil, NaN and infinities as "", Fixed2 with
// two decimals, everything else via records.String.
func FormatValue(v any) string {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return ""
	}
	return records.String(v)
}

// Options tunes Write.
type Options struct {
	// BOM prefixes CSV output with a UTF-8 byte-order mark.
	BOM bool
	// Sheet names the XLSX worksheet; defaults to the dataset label.
	Sheet string
}

// Write encodes rows to w in format f using Columns(tag, rows).
func Write(w io.Writer, f Format, tag schema.Tag, rows []records.Record, opt Options) error {
	cols := Columns(tag, rows)
	switch f {
	case CSV:
		return WriteCSV(w, cols, rows, opt.BOM)
	case JSON:
		return WriteJSON(w, cols, rows)
	case XLSX:
		sheet := opt.Sheet
		if sheet == "" {
			sheet = tag.Label()
		}
		return WriteXLSX(w, sheet, cols, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
