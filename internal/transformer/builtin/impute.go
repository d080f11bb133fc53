package builtin

import (
	"sort"

	"studentetl/pkg/records"
)

// Median returns the median of vals without modifying them. ok is false for
// an empty slice.
func Median(vals []float64) (median float64, ok bool) {
	n := len(vals)
	if n == 0 {
		return 0, false
	}
	s := make([]float64, n)
	copy(s, vals)
	sort.Float64s(s)
	mid := n / 2
	if n%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}

// GroupMedians computes, per distinct value of groupKey, the median of the
// numeric values found under valueKey. Groups without a single numeric value
// are absent from the result.
func GroupMedians(rows []records.Record, groupKey, valueKey string) map[string]float64 {
	byGroup := make(map[string][]float64)
	for _, r := range rows {
		if f, ok := records.Float(r[valueKey]); ok {
			g := records.String(r[groupKey])
			byGroup[g] = append(byGroup[g], f)
		}
	}
	medians := make(map[string]float64, len(byGroup))
	for g, vals := range byGroup {
		if m, ok := Median(vals); ok {
			medians[g] = m
		}
	}
	return medians
}

// Impute fills missing or non-numeric values with the median of their group.
// A group with no numeric value at all, or whose median is exactly 0, gets
// the integer 0 instead. Rows that already hold a number are returned
// unchanged. Impute never drops rows.
type Impute struct {
	GroupKey string // defaults to KeyDept
	ValueKey string // defaults to KeyScore

	// OnImpute, when set, is called once per repaired row; defined is false
	// when the integer 0 was substituted.
	OnImpute func(group string, defined bool)
}

// Apply returns the imputed rows in input order.
func (m Impute) Apply(in []records.Record) []records.Record {
	groupKey, valueKey := m.GroupKey, m.ValueKey
	if groupKey == "" {
		groupKey = KeyDept
	}
	if valueKey == "" {
		valueKey = KeyScore
	}

	medians := GroupMedians(in, groupKey, valueKey)

	out := make([]records.Record, len(in))
	for i, r := range in {
		if _, ok := records.Float(r[valueKey]); ok {
			out[i] = r
			continue
		}
		g := records.String(r[groupKey])
		rec := r.Clone()
		med, ok := medians[g]
		defined := ok && med != 0
		if defined {
			rec[valueKey] = records.NewFixed2(med)
		} else {
			rec[valueKey] = 0
		}
		if m.OnImpute != nil {
			m.OnImpute(g, defined)
		}
		out[i] = rec
	}
	return out
}
