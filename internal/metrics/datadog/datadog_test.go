package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentetl/internal/metrics"
)

type sample struct {
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	counts []sample
	hists  []sample
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.counts = append(f.counts, sample{name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.hists = append(f.hists, sample{name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	b, err := NewBackend(Config{})
	require.Error(t, err)
	assert.Nil(t, b)
}

func TestNewBackend_UDP(t *testing.T) {
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "studentetl.", GlobalTags: []string{"env:test"}})
	require.NoError(t, err)
	require.NotNil(t, b.client)
	require.NoError(t, b.Flush())
}

func TestBackend_ForwardsWithTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RecordsTotal, 4.9, metrics.Labels{"kind": "imputed", "job": "clean"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "impute"})
	require.NoError(t, b.Flush())

	require.Len(t, fc.counts, 1)
	assert.Equal(t, sample{metrics.RecordsTotal, 4, []string{"job:clean", "kind:imputed"}}, fc.counts[0])
	require.Len(t, fc.hists, 1)
	assert.Equal(t, sample{metrics.StepDuration, 0.25, []string{"step:impute"}}, fc.hists[0])
	assert.True(t, fc.closed)
}

func TestBackend_ZeroValueIsSafe(t *testing.T) {
	var b Backend
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	assert.NoError(t, b.Flush())
	assert.Nil(t, labelsToTags(nil))
}
