package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"studentetl/pkg/records"
)

// WriteXLSX writes a single-sheet workbook. Numbers stay numeric cells;
// Fixed2 values are written as numbers with a 0.00 format.
func WriteXLSX(w io.Writer, sheet string, cols []string, rows []records.Record) (err error) {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	fixed, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if len(cols) > 0 {
		if err := sw.SetRow("A1", header); err != nil {
			return fmt.Errorf("xlsx: header: %w", err)
		}
	}
	for i, r := range rows {
		cells := make([]any, len(cols))
		for j, c := range cols {
			cells[j] = xlsxValue(r[c], fixed)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}

func xlsxValue(v any, fixedStyle int) any {
	switch t := v.(type) {
	case nil:
		return nil
	case records.Fixed2:
		return excelize.Cell{StyleID: fixedStyle, Value: float64(records.NewFixed2(t.Float()))}
	case float64, int, int64, bool:
		if s := FormatValue(t); s == "" {
			return nil
		}
		return t
	default:
		return records.String(t)
	}
}
