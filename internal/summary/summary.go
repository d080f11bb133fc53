// Package summary computes the dashboard figures for a cleaned dataset.
package summary

import (
	"math"
	"sort"

	"studentetl/internal/schema"
	"studentetl/internal/transformer/builtin"
	"studentetl/pkg/records"
)

// secondaryPassMark is the average at or above which a secondary student
// counts as successful.
const secondaryPassMark = 50

// Group is the mean score of one group.
type Group struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Count is the number of students carrying one label.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds the headline statistics. Rows whose sex is neither Male nor
// Female are left out of every figure. Averages and rates are rounded to two
// decimals; SuccessRate is a percentage.
type Summary struct {
	Tag           schema.Tag `json:"tag"`
	TotalStudents int        `json:"total_students"`
	AverageScore  float64    `json:"average_score"`
	SuccessRate   float64    `json:"success_rate"`

	// GroupKey is "age" for secondary and "degreeawardeddate" for tertiary
	// data; ScoreByGroup is sorted by label.
	GroupKey     string  `json:"group_key"`
	ScoreByGroup []Group `json:"score_by_group"`

	// DistributionKey is "predictionclass" or "dept"; Distribution keeps
	// first-appearance order.
	DistributionKey string  `json:"distribution_key"`
	Distribution    []Count `json:"distribution"`

	Gender []Count `json:"gender"`
}

// Compute summarizes rows classified as tag. An Unrecognized tag yields only
// the counts.
func Compute(tag schema.Tag, rows []records.Record) Summary {
	s := Summary{Tag: tag, ScoreByGroup: []Group{}, Distribution: []Count{}}

	var scoreKey string
	var success func(records.Record) bool
	switch tag {
	case schema.SecondaryEducation:
		scoreKey, s.GroupKey, s.DistributionKey = builtin.KeyAverage, builtin.KeyAge, builtin.KeyPredictionClass
		success = func(r records.Record) bool {
			f, ok := records.Float(r[builtin.KeyAverage])
			return ok && f >= secondaryPassMark
		}
	case schema.TertiaryEducation:
		scoreKey, s.GroupKey, s.DistributionKey = builtin.KeyScore, builtin.KeyDegreeYear, builtin.KeyDept
		success = func(r records.Record) bool {
			return records.String(r[builtin.KeyStatus]) != "poor"
		}
	}

	var males, females int
	kept := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		switch r[builtin.GenderKey] {
		case builtin.Male:
			males++
		case builtin.Female:
			females++
		default:
			continue
		}
		kept = append(kept, r)
	}
	s.TotalStudents = len(kept)
	s.Gender = []Count{{builtin.Male, males}, {builtin.Female, females}}
	if scoreKey == "" || len(kept) == 0 {
		return s
	}

	var sum float64
	var scored, passed int
	groups := make(map[string]*acc)
	dist := make(map[string]int)
	var distOrder []string
	for _, r := range kept {
		f, ok := records.Float(r[scoreKey])
		if ok {
			sum += f
			scored++
		}
		if success(r) {
			passed++
		}
		if g := records.String(r[s.GroupKey]); g != "" {
			a := groups[g]
			if a == nil {
				a = &acc{}
				groups[g] = a
			}
			a.n++
			if ok {
				a.sum += f
				a.scored++
			}
		}
		if d := records.String(r[s.DistributionKey]); d != "" {
			if _, seen := dist[d]; !seen {
				distOrder = append(distOrder, d)
			}
			dist[d]++
		}
	}

	if scored > 0 {
		s.AverageScore = round2(sum / float64(scored))
	}
	s.SuccessRate = round2(float64(passed) / float64(len(kept)) * 100)

	labels := make([]string, 0, len(groups))
	for g := range groups {
		labels = append(labels, g)
	}
	sort.Strings(labels)
	for _, g := range labels {
		a := groups[g]
		s.ScoreByGroup = append(s.ScoreByGroup, Group{Label: g, Count: a.n, Average: a.mean()})
	}
	for _, d := range distOrder {
		s.Distribution = append(s.Distribution, Count{d, dist[d]})
	}
	return s
}

type acc struct {
	n, scored int
	sum       float64
}

func (a *acc) mean() float64 {
	if a.scored == 0 {
		return 0
	}
	return round2(a.sum / float64(a.scored))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
