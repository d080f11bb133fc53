// Package schema decides which of the two supported student-record layouts a
// dataset follows. Classification is structural: a dataset matches a schema
// only when every required column of that schema is present.
package schema

import (
	"fmt"
	"strings"
)

// Tag is the dataset-level classification. The zero value is Unrecognized.
type Tag uint8

const (
	Unrecognized Tag = iota
	SecondaryEducation
	TertiaryEducation
)

// String returns the variant name.
func (t Tag) String() string {
	switch t {
	case SecondaryEducation:
		return "SecondaryEducation"
	case TertiaryEducation:
		return "TertiaryEducation"
	default:
		return "Unrecognized"
	}
}

// Label returns the short dataset label shown to users and used in export
// file names ("HighSchool", "University"). Unrecognized has no label.
func (t Tag) Label() string {
	switch t {
	case SecondaryEducation:
		return "HighSchool"
	case TertiaryEducation:
		return "University"
	default:
		return ""
	}
}

// MarshalText encodes the tag by its variant name.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the forms ParseTag accepts.
func (t *Tag) UnmarshalText(b []byte) error {
	v, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTag accepts either the variant name or the label, case-insensitively.
func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "secondaryeducation", "highschool":
		return SecondaryEducation, nil
	case "tertiaryeducation", "university":
		return TertiaryEducation, nil
	case "unrecognized", "":
		return Unrecognized, nil
	}
	return Unrecognized, fmt.Errorf("schema: unknown tag %q", s)
}
