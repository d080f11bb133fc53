package exporter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"studentetl/pkg/records"
)

// WriteJSON writes rows as a JSON array of objects whose keys follow cols.
// Every column is present in every object; missing values are null.
func WriteJSON(w io.Writer, cols []string, rows []records.Record) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, len(cols))
	for i, c := range cols {
		b, err := json.Marshal(c)
		if err != nil {
			return err
		}
		keys[i] = b
	}

	bw.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString("\n  {")
		for j, c := range cols {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			b, err := json.Marshal(jsonValue(r[c]))
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			bw.Write(b)
		}
		bw.WriteByte('}')
	}
	if len(rows) > 0 {
		bw.WriteByte('\n')
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

// jsonValue maps values encoding/json rejects (NaN, Inf) to null.
func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}
