package builtin

import (
	"fmt"
	"strings"

	"studentetl/internal/transformer"
	"studentetl/pkg/records"
)

// Tertiary-education column names.
const (
	KeyUniversity = "universityname"
	KeyDept       = "dept"
	KeyBatch      = "batch"
	KeyScore      = "score"
	KeyDegreeYear = "degreeawardeddate"
	KeyStatus     = "status"
	KeySType      = "stype"
)

// DefaultUniversity fills an empty universityname column.
const DefaultUniversity = "Addis Ababa University"

const (
	batchPrefix   = "batch_"
	degreeYearMin = 2000
	degreeYearMax = 2025
)

// droppedTertiaryKeys are legacy columns removed from every tertiary row.
var droppedTertiaryKeys = []string{"agex", "batchx", "highschoolcompletionyearx"}

var (
	validStatus = map[string]struct{}{"poor": {}, "good": {}, "excellent": {}}
	validSType  = map[string]struct{}{"public": {}, "private": {}}
)

var tertiaryTypes = Coerce{Types: map[string]string{
	KeyScore:      KindFixed2,
	KeyDegreeYear: KindInt,
}}

// CorrectTertiary returns a corrected copy of a normalized tertiary row. A
// missing, nil or "" universityname is set to university (or
// DefaultUniversity); a whitespace-only name is kept and later passes
// validation. The exact status "exellent" is fixed, score becomes a
// two-decimal number or nil, the degree year becomes an int when integral
// and legacy columns are removed.
func CorrectTertiary(r records.Record, university string) records.Record {
	if university == "" {
		university = DefaultUniversity
	}
	out := r.Clone()

	if v := out[KeyUniversity]; v == nil || v == "" {
		out[KeyUniversity] = university
	}
	if isExcellentTypo(out[KeyStatus]) {
		out[KeyStatus] = "excellent"
	}
	tertiaryTypes.into(out)
	for _, k := range droppedTertiaryKeys {
		delete(out, k)
	}
	return out
}

// ValidTertiary reports whether a corrected row may be kept. The score is
// deliberately not checked: missing scores are repaired by Impute.
func ValidTertiary(r records.Record) (bool, string) {
	for _, k := range []string{KeyUniversity, KeyDept} {
		if s, ok := r[k].(string); !ok || s == "" {
			return false, fmt.Sprintf("required field %q missing", k)
		}
	}
	if s, _ := trimmed(r[KeyBatch]); !strings.HasPrefix(s, batchPrefix) {
		return false, fmt.Sprintf("field %q: %q lacks prefix %q", KeyBatch, s, batchPrefix)
	}
	year, ok := r[KeyDegreeYear].(int)
	if !ok {
		return false, fmt.Sprintf("field %q: %q not an integer year", KeyDegreeYear, records.String(r[KeyDegreeYear]))
	}
	if year < degreeYearMin || year > degreeYearMax {
		return false, fmt.Sprintf("field %q: %d outside [%d, %d]", KeyDegreeYear, year, degreeYearMin, degreeYearMax)
	}
	if s, _ := trimmed(r[KeyStatus]); !inSet(validStatus, s) {
		return false, fmt.Sprintf("field %q: %q not in [poor good excellent]", KeyStatus, s)
	}
	if s, _ := trimmed(r[KeySType]); !inSet(validSType, s) {
		return false, fmt.Sprintf("field %q: %q not in [public private]", KeySType, s)
	}
	return true, ""
}

// Tertiary is the Row Validator for the tertiary-education schema.
type Tertiary struct {
	University string                 // default for empty universityname
	Reject     transformer.RejectFunc // optional sink for dropped rows
}

// Row corrects and validates one row.
func (t Tertiary) Row(i int, r records.Record) (records.Record, bool) {
	out := CorrectTertiary(r, t.University)
	if ok, reason := ValidTertiary(out); !ok {
		if t.Reject != nil {
			t.Reject(transformer.RejectedRow{Index: i, Raw: r, Reason: reason, Stage: "tertiary"})
		}
		return nil, false
	}
	return out, true
}

// Apply returns the corrected rows that pass validation, in input order.
func (t Tertiary) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for i, r := range in {
		if rec, ok := t.Row(i, r); ok {
			out = append(out, rec)
		}
	}
	return out
}

func inSet(set map[string]struct{}, s string) bool {
	_, ok := set[s]
	return ok
}
