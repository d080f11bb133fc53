package builtin

import (
	"fmt"

	"studentetl/internal/transformer"
	"studentetl/pkg/records"
)

// Secondary-education column names.
const (
	KeyAverage         = "average"
	KeyPredictionClass = "predictionclass"
	KeyAge             = "age"

	keyPredictionClassTypo = "predictioclass"
	keyLegacyAgeGroup      = "agegroup(age)"
)

const (
	averageMin = 0
	averageMax = 100
)

// secondaryNumbers types the per-subject scores and counters. Values that
// do not parse stay as they were; only average is gated.
var secondaryNumbers = Coerce{Types: map[string]string{
	"english":   KindNumber,
	"math":      KindNumber,
	"civic":     KindNumber,
	"physics":   KindNumber,
	"chemistry": KindNumber,
	"biology":   KindNumber,
	"amharic":   KindNumber,
	"absent":    KindNumber,
	"rank":      KindNumber,
	KeyAverage:  KindNumber,
}}

// CorrectSecondary returns a corrected copy of a normalized secondary row:
// the misspelled prediction-class column is renamed, the exact class value
// "exellent" is fixed, the legacy age-group column becomes "age" and numeric
// columns are typed.
func CorrectSecondary(r records.Record) records.Record {
	out := r.Clone()

	if v, ok := out[keyPredictionClassTypo]; ok {
		if !out.Empty(keyPredictionClassTypo) {
			out[KeyPredictionClass] = v
		}
		delete(out, keyPredictionClassTypo)
	}
	if isExcellentTypo(out[KeyPredictionClass]) {
		out[KeyPredictionClass] = "excellent"
	}
	if v, ok := out[keyLegacyAgeGroup]; ok {
		if !out.Empty(keyLegacyAgeGroup) {
			out[KeyAge] = v
		}
		delete(out, keyLegacyAgeGroup)
	}

	secondaryNumbers.into(out)
	return out
}

// ValidSecondary reports whether a corrected row may be kept: average must
// be a present, finite number within [0, 100].
func ValidSecondary(r records.Record) (bool, string) {
	avg, ok := r[KeyAverage].(float64)
	if !ok {
		return false, fmt.Sprintf("field %q: %q not a number", KeyAverage, records.String(r[KeyAverage]))
	}
	if avg < averageMin || avg > averageMax {
		return false, fmt.Sprintf("field %q: %v outside [%d, %d]", KeyAverage, avg, averageMin, averageMax)
	}
	return true, ""
}

// Secondary is the Row Validator for the secondary-education schema.
type Secondary struct {
	Reject transformer.RejectFunc // optional sink for dropped rows
}

// Row corrects and validates one row.
func (s Secondary) Row(i int, r records.Record) (records.Record, bool) {
	out := CorrectSecondary(r)
	if ok, reason := ValidSecondary(out); !ok {
		if s.Reject != nil {
			s.Reject(transformer.RejectedRow{Index: i, Raw: r, Reason: reason, Stage: "secondary"})
		}
		return nil, false
	}
	return out, true
}

// Apply returns the corrected rows that pass validation, in input order.
func (s Secondary) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for i, r := range in {
		if rec, ok := s.Row(i, r); ok {
			out = append(out, rec)
		}
	}
	return out
}

// isExcellentTypo matches the misspelling exactly; "Exellent" or " exellent"
// are left for validation to judge.
func isExcellentTypo(v any) bool { return v == "exellent" }
