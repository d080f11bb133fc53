package builtin

import (
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"studentetl/pkg/records"
)

// Dedupe policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// Dedupe collapses duplicate records. Records are keyed by a 128-bit xxh3
// fingerprint of the configured Keys, or of every column when Keys is empty,
// so an upload that repeats the same line twice is counted once.
//
// Policies:
//
//   - "keep-first"    : keep the earliest occurrence (default)
//   - "keep-last"     : keep the latest occurrence
//   - "most-complete" : keep the record with the most non-empty fields; ties
//     break by keep-last
//
// Output order follows the position of each winning record in the input.
// Run Dedupe after Normalize so that column names are comparable.
type Dedupe struct {
	Keys   []string
	Policy string
}

// Winners returns the ascending input positions of the records that survive.
func (d Dedupe) Winners(in []records.Record) []int {
	if len(in) < 2 {
		idx := make([]int, len(in))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = KeepFirst
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[xxh3.Uint128]slot, len(in))
	for i, r := range in {
		key := d.fingerprint(r)
		prev, seen := winners[key]
		switch policy {
		case KeepLast:
			winners[key] = slot{index: i}
		case MostComplete:
			s := slot{index: i, score: completeness(r)}
			if !seen || s.score >= prev.score {
				winners[key] = s
			}
		default:
			if !seen {
				winners[key] = slot{index: i}
			}
		}
	}

	idx := make([]int, 0, len(winners))
	for _, s := range winners {
		idx = append(idx, s.index)
	}
	sort.Ints(idx)
	return idx
}

// fingerprint hashes the key columns as name=value pairs separated by unit
// separators; nil values hash as a NUL byte so they differ from "".
func (d Dedupe) fingerprint(r records.Record) xxh3.Uint128 {
	keys := d.Keys
	if len(keys) == 0 {
		keys = r.Keys()
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		if v := r[k]; v == nil {
			b.WriteByte(0)
		} else {
			b.WriteString(records.String(v))
		}
		b.WriteByte('\x1f')
	}
	return xxh3.HashString128(b.String())
}

func completeness(r records.Record) int {
	n := 0
	for k := range r {
		if !r.Empty(k) {
			n++
		}
	}
	return n
}
