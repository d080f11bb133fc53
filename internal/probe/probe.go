// Package probe samples the head of an upload and reports its columns, the
// type each column appears to hold and which schema the header would match,
// without running the pipeline.
//
// CSV sources are read only up to Options.MaxBytes, cut back to the last
// complete line. Workbooks have to be read whole.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"studentetl/internal/datasource"
	"studentetl/internal/parser"
	csvparser "studentetl/internal/parser/csv"
	"studentetl/internal/schema"
	"studentetl/internal/transformer/builtin"
	"studentetl/pkg/records"
)

// Defaults for Options.
const (
	DefaultMaxBytes = 1 << 20
	DefaultMaxRows  = 1000
)

// Column types reported by Probe.
const (
	TypeEmpty   = "empty"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeText    = "text"
)

// ErrNoHeader is returned when the sample holds no usable header line.
var ErrNoHeader = errors.New("probe: no header row in sample")

// Options control sampling.
type Options struct {
	// MaxBytes caps how much of a CSV source is read.
	MaxBytes int
	// MaxRows caps how many data rows feed type inference.
	MaxRows int
	// Delimiter is the CSV separator; zero sniffs it from the header line.
	Delimiter rune
	// Sheet selects the worksheet; empty means the first.
	Sheet string
}

// Column describes one header cell.
type Column struct {
	Header string `json:"header"`
	Key    string `json:"key"`
	Type   string `json:"type"`
	Empty  int    `json:"empty"`
}

// Report is the outcome of one probe.
type Report struct {
	Source    string     `json:"source"`
	Kind      string     `json:"kind"`
	Delimiter string     `json:"delimiter,omitempty"`
	Sampled   int        `json:"sampled_rows"`
	Truncated bool       `json:"truncated"`
	Columns   []Column   `json:"columns"`
	Tag       schema.Tag `json:"tag"`

	// Missing lists, per schema label, the required columns the header lacks.
	Missing map[string][]string `json:"missing"`
}

// Probe samples src as kind.
func Probe(ctx context.Context, src datasource.Source, kind parser.Kind, opt Options) (Report, error) {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.MaxRows <= 0 {
		opt.MaxRows = DefaultMaxRows
	}
	rep := Report{Source: src.Name(), Kind: string(kind)}

	rc, err := src.Open(ctx)
	if err != nil {
		return rep, err
	}
	defer rc.Close()

	var header []string
	var rows [][]string
	switch kind {
	case parser.XLSX:
		header, rows, err = sampleXLSX(ctx, rc, opt)
	default:
		var data []byte
		data, rep.Truncated, err = peek(rc, opt.MaxBytes)
		if err != nil {
			return rep, fmt.Errorf("probe: read %s: %w", rep.Source, err)
		}
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(data)
		}
		rep.Delimiter = string(delim)
		header, rows, err = sampleCSV(data, delim, opt.MaxRows)
	}
	if err != nil {
		return rep, err
	}

	rep.Sampled = len(rows)
	rep.Columns = describe(header, rows)
	keys := make([]string, len(rep.Columns))
	for i, c := range rep.Columns {
		keys[i] = c.Key
	}
	rep.Tag = schema.Classify(keys)
	rep.Missing = byLabel(schema.NewMismatch(keys).Missing())
	return rep, nil
}

// peek reads up to n bytes and, when the source is longer, drops the
// trailing partial line.
func peek(r io.Reader, n int) ([]byte, bool, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, int64(n)+1)); err != nil {
		return nil, false, err
	}
	data := buf.Bytes()
	if len(data) <= n {
		return data, false, nil
	}
	data = data[:n]
	if i := bytes.LastIndexByte(data, '\n'); i > 0 {
		data = data[:i+1]
	}
	return data, true, nil
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate seen most often on the first line.
// Ties keep the earlier candidate, so a single-column header yields ','.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, count := ',', 0
	for _, d := range delimiterCandidates {
		if n := bytes.Count(line, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}

// sampleCSV reads best-effort: malformed lines and rows wider or narrower
// than the header are skipped.
func sampleCSV(data []byte, delim rune, maxRows int) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var header []string
	for header == nil {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil, ErrNoHeader
		}
		if err != nil || records.Blank(rec) {
			continue
		}
		header = csvparser.StripHeaderBOM(rec)
	}

	var rows [][]string
	for len(rows) < maxRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || records.Blank(rec) || len(rec) != len(header) {
			continue
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func sampleXLSX(ctx context.Context, r io.Reader, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("probe: open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	it, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("probe: read sheet %q: %w", sheet, err)
	}
	defer it.Close()

	var header []string
	var rows [][]string
	for it.Next() && len(rows) < opt.MaxRows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cells, err := it.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("probe: read sheet %q: %w", sheet, err)
		}
		if records.Blank(cells) {
			continue
		}
		if header == nil {
			header = cells
			continue
		}
		rows = append(rows, fit(cells, len(header)))
	}
	if header == nil {
		return nil, nil, ErrNoHeader
	}
	return header, rows, nil
}

// fit truncates or pads a row to n cells.
func fit(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func describe(header []string, rows [][]string) []Column {
	cols := make([]Column, len(header))
	for i, h := range header {
		values := make([]string, 0, len(rows))
		empty := 0
		for _, row := range rows {
			v := strings.TrimSpace(row[i])
			if v == "" {
				empty++
				continue
			}
			values = append(values, v)
		}
		cols[i] = Column{
			Header: h,
			Key:    builtin.NormalizeKey(h),
			Type:   inferType(values),
			Empty:  empty,
		}
	}
	return cols
}

// inferType requires every non-empty value to satisfy the narrower type.
func inferType(values []string) string {
	if len(values) == 0 {
		return TypeEmpty
	}
	if allMatch(values, isInt) {
		return TypeInteger
	}
	if allMatch(values, isNumber) {
		return TypeNumber
	}
	return TypeText
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// byLabel keys the missing columns by schema label and lists every schema,
// satisfied ones with an empty slice.
func byLabel(missing map[schema.Tag][]string) map[string][]string {
	out := make(map[string][]string, 2)
	for _, tag := range []schema.Tag{schema.SecondaryEducation, schema.TertiaryEducation} {
		lack := missing[tag]
		if lack == nil {
			lack = []string{}
		}
		out[tag.Label()] = lack
	}
	return out
}
