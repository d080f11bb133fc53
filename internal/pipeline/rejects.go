package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"studentetl/internal/transformer"
)

// rejectLog counts rejected rows and keeps the reasons of the lowest-indexed
// ones, so samples do not depend on worker scheduling. It is shared by the
// validate workers.
type rejectLog struct {
	mu      sync.Mutex
	limit   int
	n       int
	samples []transformer.RejectedRow
}

func newRejectLog(limit int) *rejectLog {
	return &rejectLog{limit: limit}
}

func (l *rejectLog) add(r transformer.RejectedRow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	if l.limit <= 0 {
		return
	}
	if len(l.samples) == l.limit {
		if r.Index >= l.samples[l.limit-1].Index {
			return
		}
		l.samples = l.samples[:l.limit-1]
	}
	r.Raw = nil
	l.samples = append(l.samples, r)
	sort.Slice(l.samples, func(i, j int) bool { return l.samples[i].Index < l.samples[j].Index })
}

func (l *rejectLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// first renders the kept samples as "row N: reason" with 1-based rows.
func (l *rejectLog) first() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.samples) == 0 {
		return nil
	}
	out := make([]string, len(l.samples))
	for i, r := range l.samples {
		out[i] = fmt.Sprintf("row %d: %s", r.Index+1, r.Reason)
	}
	return out
}
