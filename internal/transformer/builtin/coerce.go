package builtin

import (
	"math"
	"strconv"
	"strings"

	"studentetl/pkg/records"
)

// Coercion kinds understood by Coerce.
const (
	KindNumber = "number" // float64
	KindInt    = "int"    // int
	KindFixed2 = "fixed2" // records.Fixed2, nil when not numeric
)

// Coerce converts string fields to typed values. A value that cannot be
// converted is left as it was, except for KindFixed2 which becomes nil.
type Coerce struct {
	Types map[string]string // field -> KindNumber | KindInt | KindFixed2
}

// into coerces r in place; callers own r.
func (c Coerce) into(r records.Record) {
	for field, kind := range c.Types {
		v, ok := r[field]
		if !ok {
			continue
		}
		switch kind {
		case KindNumber:
			if f, ok := records.Float(v); ok {
				r[field] = f
			}
		case KindInt:
			if n, ok := toInt(v); ok {
				r[field] = n
			}
		case KindFixed2:
			if f, ok := records.Float(v); ok {
				r[field] = records.NewFixed2(f)
			} else {
				r[field] = nil
			}
		}
	}
}

// toInt parses integers and only falls back to float parsing when the field
// contains a '.', accepting integral values such as "2015.0".
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return int(t), true
		}
		return 0, false
	case string:
		s := t
		if hasEdgeSpace(s) {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return int(i), true
		}
		if strings.IndexByte(s, '.') >= 0 {
			if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
				return int(f), true
			}
		}
	}
	return 0, false
}
