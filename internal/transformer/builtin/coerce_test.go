package builtin

import (
	"reflect"
	"testing"

	"studentetl/pkg/records"
)

/*
TestCoerce_Kinds verifies the three coercion kinds: numbers become float64,
integral values become int (including "2015.0"), fixed2 values are rounded to
two decimals and unparseable fixed2 values become nil.
*/
func TestCoerce_Kinds(t *testing.T) {
	c := Coerce{Types: map[string]string{
		"n": KindNumber,
		"i": KindInt,
		"f": KindFixed2,
	}}
	tests := []struct {
		name string
		in   records.Record
		want records.Record
	}{
		{
			name: "all_parse",
			in:   records.Record{"n": " 70.5 ", "i": "2015", "f": "3.255", "x": "keep"},
			want: records.Record{"n": 70.5, "i": 2015, "f": records.NewFixed2(3.255), "x": "keep"},
		},
		{
			name: "int_from_integral_float",
			in:   records.Record{"i": "2015.0"},
			want: records.Record{"i": 2015},
		},
		{
			name: "int_fraction_left_alone",
			in:   records.Record{"i": "2015.5"},
			want: records.Record{"i": "2015.5"},
		},
		{
			name: "number_garbage_left_alone",
			in:   records.Record{"n": "n/a"},
			want: records.Record{"n": "n/a"},
		},
		{
			name: "fixed2_garbage_is_nil",
			in:   records.Record{"f": "abc"},
			want: records.Record{"f": nil},
		},
		{
			name: "fixed2_infinity_is_nil",
			in:   records.Record{"f": "+Inf"},
			want: records.Record{"f": nil},
		},
		{
			name: "absent_fields_stay_absent",
			in:   records.Record{"x": "1"},
			want: records.Record{"x": "1"},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tc.in.Clone()
			c.into(got)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("into()=%#v; want %#v", got, tc.want)
			}
		})
	}
}

/*
TestToInt covers the fast integer parser on the value types transforms
produce.
*/
func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{"42", 42, true},
		{" 7 ", 7, true},
		{"-3", -3, true},
		{"10.00", 10, true},
		{"1e3", 0, false},
		{"", 0, false},
		{3.0, 3, true},
		{3.5, 0, false},
		{int64(9), 9, true},
		{nil, 0, false},
	}
	for _, tc := range tests {
		got, ok := toInt(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("toInt(%#v)=(%d,%v); want (%d,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
