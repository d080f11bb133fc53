package builtin

import (
	"reflect"
	"testing"

	"studentetl/pkg/records"
)

func mk(dept, batch string, fields map[string]any) records.Record {
	r := records.Record{
		"dept":  dept,
		"batch": batch,
	}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// pick returns the records at idx.
func pick(in []records.Record, idx []int) []records.Record {
	out := make([]records.Record, len(idx))
	for j, i := range idx {
		out[j] = in[i]
	}
	return out
}

/*
TestDedupe_Policies verifies keep-first, keep-last and most-complete over
the same input, keyed on dept and batch.
*/
func TestDedupe_Policies(t *testing.T) {
	in := []records.Record{
		mk("CS", "batch_1", map[string]any{"status": ""}),
		mk("CS", "batch_1", map[string]any{"status": "good", "stype": "public"}),
		mk("Math", "batch_1", map[string]any{"status": "poor"}),
		mk("CS", "batch_1", map[string]any{"status": "poor"}),
	}
	tests := []struct {
		policy string
		want   []records.Record
	}{
		{"", []records.Record{in[0], in[2]}},
		{KeepFirst, []records.Record{in[0], in[2]}},
		{KeepLast, []records.Record{in[2], in[3]}},
		{MostComplete, []records.Record{in[1], in[2]}},
	}
	for _, tc := range tests {
		d := Dedupe{Keys: []string{"dept", "batch"}, Policy: tc.policy}
		got := pick(in, d.Winners(in))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("policy %q: got %#v want %#v", tc.policy, got, tc.want)
		}
	}
}

/*
TestDedupe_AllColumns checks that with no Keys every column takes part in
the fingerprint and that nil differs from the empty string.
*/
func TestDedupe_AllColumns(t *testing.T) {
	in := []records.Record{
		{"a": "1", "b": ""},
		{"a": "1", "b": nil},
		{"a": "1", "b": ""},
		{"a": "1", "b": "", "c": "x"},
	}
	got := pick(in, Dedupe{}.Winners(in))
	want := []records.Record{in[0], in[1], in[3]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestDedupe_TypedValuesCompareByDisplay(t *testing.T) {
	in := []records.Record{
		{"score": records.Fixed2(3.5)},
		{"score": "3.50"},
		{"score": 3.5},
	}
	got := pick(in, Dedupe{}.Winners(in))
	if len(got) != 2 {
		t.Fatalf("len=%d; want 2 (%#v)", len(got), got)
	}
}

/*
TestDedupe_KeysSeparatePolicies shows why keys matter: over whole rows the
three copies differ and nothing collapses, over dept and batch they are one
student and each policy keeps a different copy.
*/
func TestDedupe_KeysSeparatePolicies(t *testing.T) {
	in := []records.Record{
		mk("CS", "batch_1", map[string]any{"score": "2"}),
		mk("CS", "batch_1", map[string]any{"score": "3", "status": "good"}),
		mk("CS", "batch_1", map[string]any{"score": "4"}),
	}
	for _, policy := range []string{KeepFirst, KeepLast, MostComplete} {
		if got := (Dedupe{Policy: policy}).Winners(in); !reflect.DeepEqual(got, []int{0, 1, 2}) {
			t.Errorf("policy %q without keys: winners=%v", policy, got)
		}
	}
	want := map[string][]int{KeepFirst: {0}, KeepLast: {2}, MostComplete: {1}}
	for policy, w := range want {
		d := Dedupe{Keys: []string{"dept", "batch"}, Policy: policy}
		if got := d.Winners(in); !reflect.DeepEqual(got, w) {
			t.Errorf("policy %q with keys: winners=%v; want %v", policy, got, w)
		}
	}
}

func TestDedupe_Winners(t *testing.T) {
	in := []records.Record{{"a": "1"}, {"a": "2"}, {"a": "1"}, {"a": "2"}}
	if got := (Dedupe{}).Winners(in); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("keep-first winners=%v", got)
	}
	if got := (Dedupe{Policy: "KEEP-LAST"}).Winners(in); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("keep-last winners=%v", got)
	}
	if got := (Dedupe{}).Winners(in[:1]); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("single winners=%v", got)
	}
}
