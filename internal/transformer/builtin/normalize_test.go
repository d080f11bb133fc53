package builtin

import (
	"reflect"
	"testing"

	"studentetl/pkg/records"
)

const nbspace = "\u00a0"

/*
TestNormalizeKey_TableDriven verifies key canonicalization: lower-casing,
removal of every whitespace rune (including NBSP and tabs) and removal of a
leading byte-order mark.
*/
func TestNormalizeKey_TableDriven(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Dept", "dept"},
		{"Degree Awarded Date", "degreeawardeddate"},
		{"  Prediction  Class ", "predictionclass"},
		{"Age Group(Age)", "agegroup(age)"},
		{"\uFEFFEnglish", "english"},
		{"S" + nbspace + "Type\t", "stype"},
		{"UNIVERSITY\nNAME", "universityname"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeKey(tc.in); got != tc.want {
			t.Errorf("NormalizeKey(%q)=%q; want %q", tc.in, got, tc.want)
		}
	}
}

/*
TestNormalizeKey_Idempotent checks NormalizeKey(NormalizeKey(k)) equals
NormalizeKey(k) over a mix of awkward inputs.
*/
func TestNormalizeKey_Idempotent(t *testing.T) {
	inputs := []string{
		"Dept", " Batch ", "Ünïcödé Käy", "école", "ΣΊΣΥΦΟΣ", "\uFEFF a b c ",
		"İstanbul", "x" + nbspace + "y",
	}
	for _, in := range inputs {
		once := NormalizeKey(in)
		if twice := NormalizeKey(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

/*
TestNormalizeGender_Exhaustive verifies the gender mapping is total: every
input yields exactly Male, Female or nil, independent of case and edge
whitespace.
*/
func TestNormalizeGender_Exhaustive(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"m", Male},
		{"M", Male},
		{" male ", Male},
		{"MALE", Male},
		{"f", Female},
		{" FEMALE ", Female},
		{"Female", Female},
		{"\tF\n", Female},
		{"", nil},
		{"x", nil},
		{"mal", nil},
		{"women", nil},
		{"other", nil},
		{nil, nil},
		{1, nil},
	}
	for _, tc := range tests {
		got := NormalizeGender(tc.in)
		if got != tc.want {
			t.Errorf("NormalizeGender(%#v)=%#v; want %#v", tc.in, got, tc.want)
		}
		if got != nil && got != Male && got != Female {
			t.Errorf("NormalizeGender(%#v) produced out-of-range %#v", tc.in, got)
		}
	}
}

/*
TestNormalizeRow_TableDriven covers key canonicalization of a whole row and
the gender alias lookup.
*/
func TestNormalizeRow_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		in   records.Record
		want records.Record
	}{
		{
			name: "keys_and_sex",
			in:   records.Record{"Dept": "CS", "Degree Awarded Date": "2020", "Sex": " m "},
			want: records.Record{"dept": "CS", "degreeawardeddate": "2020", "sex": Male},
		},
		{
			name: "gender_alias_kept_and_copied",
			in:   records.Record{"Gender": "female", "Score": "3.1"},
			want: records.Record{"gender": "female", "score": "3.1", "sex": Female},
		},
		{
			name: "no_gender_column",
			in:   records.Record{"Math": "80"},
			want: records.Record{"math": "80", "sex": nil},
		},
		{
			name: "unknown_gender",
			in:   records.Record{"sex": "unknown"},
			want: records.Record{"sex": nil},
		},
		{
			name: "empty_sex_falls_back_to_gender",
			in:   records.Record{"sex": "", "gender": "M"},
			want: records.Record{"sex": Male, "gender": "M"},
		},
		{
			name: "blank_sex_falls_back_to_gender",
			in:   records.Record{"Sex": "  ", "Gender": "f"},
			want: records.Record{"sex": Female, "gender": "f"},
		},
		{
			name: "unknown_sex_wins_over_gender",
			in:   records.Record{"Sex": "unknown", "Gender": "M"},
			want: records.Record{"sex": nil, "gender": "M"},
		},
		{
			name: "null_sex_stays_absent",
			in:   records.Record{"sex": nil, "gender": "M"},
			want: records.Record{"sex": nil, "gender": "M"},
		},
		{
			name: "only_gender_unknown",
			in:   records.Record{"Gender": "x"},
			want: records.Record{"sex": nil, "gender": "x"},
		},
		{
			name: "values_untouched",
			in:   records.Record{"Average": " 87.5 ", "Rank": nil},
			want: records.Record{"average": " 87.5 ", "rank": nil, "sex": nil},
		},
		{
			name: "colliding_keys_last_sorted_wins",
			in:   records.Record{"Dept": "A", "dept": "B"},
			want: records.Record{"dept": "B", "sex": nil},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snapshot := tc.in.Clone()
			got := NormalizeRow(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizeRow()=%#v; want %#v", got, tc.want)
			}
			if !reflect.DeepEqual(tc.in, snapshot) {
				t.Fatalf("input mutated: %#v", tc.in)
			}
		})
	}
}

/*
TestNormalizeRow_Idempotent verifies that normalizing an already-normalized
row yields the same row.
*/
func TestNormalizeRow_Idempotent(t *testing.T) {
	rows := []records.Record{
		{"Dept": "CS", "Sex": "F", "Batch": "batch_1"},
		{"Gender": "m", "Sex": "??"},
		{"  English ": "70", "Prediction Class": "good"},
		{},
	}
	for _, r := range rows {
		once := NormalizeRow(r)
		twice := NormalizeRow(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("not idempotent:\n once=%#v\ntwice=%#v", once, twice)
		}
	}
}

func TestNormalize_Apply(t *testing.T) {
	in := []records.Record{{"A": "1"}, {"B": "2"}}
	got := Normalize{}.Apply(in)
	if len(got) != 2 || got[0]["a"] != "1" || got[1]["b"] != "2" {
		t.Fatalf("Apply()=%#v", got)
	}
	if _, ok := in[0]["a"]; ok {
		t.Fatalf("input mutated")
	}
}
