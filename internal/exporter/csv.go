package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"studentetl/pkg/records"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a header line and one line per row. A header is written
// even for zero rows when cols is non-empty.
func WriteCSV(w io.Writer, cols []string, rows []records.Record, bom bool) error {
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if len(cols) > 0 {
		if err := cw.Write(cols); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	line := make([]string, len(cols))
	for i, r := range rows {
		for j, c := range cols {
			line[j] = FormatValue(r[c])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
