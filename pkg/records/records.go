// Package records defines the row type shared by every pipeline stage.
//
// A Record maps a column name to a value. Values produced by the parsers are
// string or nil; transforms replace them with typed values (float64, int,
// Fixed2) as they correct and validate a row. Transforms never mutate a
// Record they received: they Clone it first.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of r. Values are immutable scalars, so a
// shallow copy is enough to keep the original untouched.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the column names of r in ascending order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether the value stored under key is missing, nil or an
// empty string.
func (r Record) Empty(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

// Fixed2 is a number that always renders with exactly two decimal places,
// e.g. 3.25 -> "3.25" and 2 -> "2.00".
type Fixed2 float64

// NewFixed2 rounds f half away from zero to two decimals.
func NewFixed2(f float64) Fixed2 {
	return Fixed2(math.Round(f*100) / 100)
}

func (f Fixed2) String() string {
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}

// Float returns the underlying value.
func (f Fixed2) Float() float64 { return float64(f) }

// MarshalJSON encodes the value as a JSON string so the two decimals survive.
func (f Fixed2) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// String converts common value types to their display form without going
// through fmt for the hot cases. nil renders as "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Fixed2:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Float extracts a finite number from v. Strings are trimmed before parsing;
// NaN and infinities are reported as not numeric.
func Float(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case Fixed2:
		f = float64(t)
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
