package schema

import (
	"errors"
	"fmt"
	"strings"

	"studentetl/pkg/records"
)

var (
	// ErrEmptyInput is reported when a dataset has no rows at all.
	ErrEmptyInput = errors.New("schema: no rows in dataset")
	// ErrSchemaMismatch is wrapped by *MismatchError.
	ErrSchemaMismatch = errors.New("schema: columns match neither schema")
)

// Required column sets, already in canonical (normalized) form.
var (
	secondaryKeys = []string{
		"english", "math", "civic", "physics", "chemistry", "biology",
		"amharic", "average", "predictionclass", "absent", "rank",
	}
	tertiaryKeys = []string{
		"dept", "batch", "score", "degreeawardeddate", "status", "stype",
	}
)

// RequiredKeys returns a copy of the columns tag requires. Unrecognized
// requires nothing and yields nil.
func RequiredKeys(tag Tag) []string {
	var src []string
	switch tag {
	case SecondaryEducation:
		src = secondaryKeys
	case TertiaryEducation:
		src = tertiaryKeys
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// MismatchError describes a dataset whose columns satisfy neither schema.
type MismatchError struct {
	// Expected holds the full required key set per schema.
	Expected map[Tag][]string
	// Found is the sorted key set of the first row.
	Found []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf(
		"schema: columns match neither schema; %s requires [%s]; %s requires [%s]; found [%s]",
		SecondaryEducation.Label(), strings.Join(e.Expected[SecondaryEducation], ", "),
		TertiaryEducation.Label(), strings.Join(e.Expected[TertiaryEducation], ", "),
		strings.Join(e.Found, ", "),
	)
}

// Unwrap lets callers use errors.Is(err, ErrSchemaMismatch).
func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }

// Missing returns, per schema, the required keys absent from Found.
func (e *MismatchError) Missing() map[Tag][]string {
	have := make(map[string]struct{}, len(e.Found))
	for _, k := range e.Found {
		have[k] = struct{}{}
	}
	out := make(map[Tag][]string, len(e.Expected))
	for tag, keys := range e.Expected {
		for _, k := range keys {
			if _, ok := have[k]; !ok {
				out[tag] = append(out[tag], k)
			}
		}
	}
	return out
}

// Classify decides the tag for a set of normalized column names. Order and
// duplicates are irrelevant. When both schemas are fully present the
// secondary schema wins.
func Classify(keys []string) Tag {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	switch {
	case containsAll(set, secondaryKeys):
		return SecondaryEducation
	case containsAll(set, tertiaryKeys):
		return TertiaryEducation
	default:
		return Unrecognized
	}
}

// ClassifyRows classifies a dataset of normalized rows from the key set of
// its first row. An empty dataset yields ErrEmptyInput; a dataset matching
// neither schema yields a *MismatchError. Both come with Unrecognized.
func ClassifyRows(rows []records.Record) (Tag, error) {
	if len(rows) == 0 {
		return Unrecognized, ErrEmptyInput
	}
	keys := rows[0].Keys()
	if tag := Classify(keys); tag != Unrecognized {
		return tag, nil
	}
	return Unrecognized, NewMismatch(keys)
}

// NewMismatch describes found against both required key sets.
func NewMismatch(found []string) *MismatchError {
	return &MismatchError{
		Expected: map[Tag][]string{
			SecondaryEducation: RequiredKeys(SecondaryEducation),
			TertiaryEducation:  RequiredKeys(TertiaryEducation),
		},
		Found: found,
	}
}

func containsAll(set map[string]struct{}, want []string) bool {
	for _, k := range want {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}
