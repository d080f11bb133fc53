package summary

import (
	"strings"

	"studentetl/internal/transformer/builtin"
	"studentetl/pkg/records"
)

// FilterAll is the dashboard choice that disables one filter.
const FilterAll = "All"

// Filter narrows a cleaned dataset the way the dashboards do: by
// prediction class and sex for secondary data, by department for tertiary
// data. Values compare exactly; an empty value or "All" (any case) matches
// every row. A filter on a column the dataset lacks matches nothing.
type Filter struct {
	Class string `json:"class,omitempty"`
	Sex   string `json:"sex,omitempty"`
	Dept  string `json:"dept,omitempty"`
}

func (f Filter) terms() [][2]string {
	var out [][2]string
	for _, t := range [][2]string{
		{builtin.KeyPredictionClass, f.Class},
		{builtin.GenderKey, f.Sex},
		{builtin.KeyDept, f.Dept},
	} {
		if v := strings.TrimSpace(t[1]); v != "" && !strings.EqualFold(v, FilterAll) {
			out = append(out, [2]string{t[0], v})
		}
	}
	return out
}

// Active reports whether any value narrows the data.
func (f Filter) Active() bool { return len(f.terms()) > 0 }

// Match reports whether r passes every active value.
func (f Filter) Match(r records.Record) bool {
	for _, t := range f.terms() {
		v, ok := r[t[0]]
		if !ok || v == nil || records.String(v) != t[1] {
			return false
		}
	}
	return true
}

// Apply returns the matching rows in order. An inactive filter returns rows
// itself.
func (f Filter) Apply(rows []records.Record) []records.Record {
	if !f.Active() {
		return rows
	}
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Suffix joins the active values for download names, e.g. "excellent_Male".
func (f Filter) Suffix() string {
	terms := f.terms()
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t[1]
	}
	return strings.Join(parts, "_")
}
