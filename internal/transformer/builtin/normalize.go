// Package builtin contains the record transformers of the cleaning pipeline:
// field normalization, the per-schema correct-then-validate rules, group
// median imputation and duplicate removal.
package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"studentetl/pkg/records"
)

// Canonical gender values.
const (
	Male   = "Male"
	Female = "Female"
)

// GenderKey is the column that carries the normalized gender.
const GenderKey = "sex"

// genderAliases lists canonical column names that may hold a gender, in
// priority order.
var genderAliases = []string{"sex", "gender"}

// NormalizeKey canonicalizes a column name: every whitespace rune and any
// byte-order mark is removed, letters are lower-cased and the result is put
// in Unicode NFC form. NormalizeKey(NormalizeKey(k)) == NormalizeKey(k).
func NormalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		if r == '\uFEFF' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return norm.NFC.String(b.String())
}

// NormalizeGender maps a raw gender token to Male, Female or nil. Matching
// ignores case and surrounding whitespace; anything unrecognized, including
// non-string values, yields nil.
func NormalizeGender(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male
	case "f", "female":
		return Female
	default:
		return nil
	}
}

// NormalizeRow returns a new record with canonical keys and a normalized
// GenderKey column. Raw keys are visited in sorted order, so when two raw
// keys canonicalize to the same name the one sorting last wins. The gender
// comes from the first non-empty value among the alias columns (sex, then
// gender), normalized on its own: a sex column holding "unknown" yields nil
// even when a gender column says "M". Other values are copied untouched.
func NormalizeRow(raw records.Record) records.Record {
	out := make(records.Record, len(raw)+1)
	aliasVals := make(map[string][]any, len(genderAliases))
	for _, k := range raw.Keys() {
		nk := NormalizeKey(k)
		v := raw[k]
		out[nk] = v
		if isGenderAlias(nk) {
			aliasVals[nk] = append(aliasVals[nk], v)
		}
	}

	out[GenderKey] = NormalizeGender(firstPresent(genderAliases, aliasVals))
	return out
}

// firstPresent returns the first value, in alias order, that is not a blank
// string. A nil value counts as present: it is what NormalizeRow writes for
// an unrecognized gender, so a normalized row keeps its decision when it is
// normalized again.
func firstPresent(aliases []string, vals map[string][]any) any {
	for _, alias := range aliases {
		for _, v := range vals[alias] {
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

// Normalize is the Field Normalizer stage.
type Normalize struct{}

// Apply returns one normalized record per input record.
func (Normalize) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		out[i] = NormalizeRow(r)
	}
	return out
}

func isGenderAlias(k string) bool {
	for _, a := range genderAliases {
		if a == k {
			return true
		}
	}
	return false
}

// hasEdgeSpace reports whether s starts or ends with an ASCII space, tab,
// CR or LF; it lets hot paths skip strings.TrimSpace on clean values.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	switch s[len(s)-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// trimmed returns v as a trimmed string and whether v was a string at all.
func trimmed(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	if hasEdgeSpace(s) {
		s = strings.TrimSpace(s)
	}
	return s, true
}
