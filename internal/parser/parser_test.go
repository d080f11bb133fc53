package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentetl/internal/config"
)

func TestKindFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Kind
		err  bool
	}{
		{"students.csv", CSV, false},
		{"/tmp/Students.CSV", CSV, false},
		{"grades.tsv", CSV, false},
		{"export.txt", CSV, false},
		{"book.xlsx", XLSX, false},
		{"macro.XLSM", XLSX, false},
		{"old.xls", "", true},
		{"-", "", true},
		{"noext", "", true},
	}
	for _, tc := range tests {
		got, err := KindFromPath(tc.name)
		if tc.err {
			assert.ErrorIs(t, err, ErrUnknownKind, tc.name)
			continue
		}
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	k, err := Resolve("", "a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, XLSX, k)

	k, err = Resolve(" CSV ", "-")
	require.NoError(t, err)
	assert.Equal(t, CSV, k)

	_, err = Resolve("ods", "a.csv")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_CSVUsesOptions(t *testing.T) {
	t.Parallel()

	var soft []int
	p, err := New(CSV, config.Options{"comma": ";", "trim_space": true}, func(n int, err error) {
		soft = append(soft, n)
	})
	require.NoError(t, err)

	rows, err := p.Parse(context.Background(), strings.NewReader("Dept;Score\n CS ; 3.5 \nLaw;1;extra\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CS", rows[0]["Dept"])
	assert.Equal(t, "3.5", rows[0]["Score"])
	assert.Equal(t, []int{3}, soft)
}

func TestNew_Unknown(t *testing.T) {
	t.Parallel()
	_, err := New("ods", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
