package records

import (
	"strconv"
	"strings"
)

// ColumnName returns the key for cell idx: the header text, or "col_N" when
// the header cell is missing or empty.
func ColumnName(idx int, header []string) string {
	if idx < len(header) && header[idx] != "" {
		return header[idx]
	}
	return "col_" + strconv.Itoa(idx)
}

// FromCells zips a header row with one data row. Missing trailing cells
// become nil; cells beyond the header are dropped and counted in extra.
// When two header cells share a name the rightmost wins.
func FromCells(header, cells []string) (rec Record, extra int) {
	rec = make(Record, len(header))
	for i := range header {
		key := ColumnName(i, header)
		if i < len(cells) {
			rec[key] = cells[i]
		} else {
			rec[key] = nil
		}
	}
	if len(cells) > len(header) {
		extra = len(cells) - len(header)
	}
	return rec, extra
}

// Blank reports whether every cell is empty or whitespace.
func Blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
