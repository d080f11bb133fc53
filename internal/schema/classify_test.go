package schema

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentetl/pkg/records"
)

func rowWith(keys ...string) records.Record {
	r := records.Record{}
	for _, k := range keys {
		r[k] = "x"
	}
	return r
}

/*
TestClassify_TableDriven checks the full-key-set rule for both schemas,
including extra columns, a single missing column and the tie-break when both
key sets are present.
*/
func TestClassify_TableDriven(t *testing.T) {
	secondary := RequiredKeys(SecondaryEducation)
	tertiary := RequiredKeys(TertiaryEducation)

	tests := []struct {
		name string
		keys []string
		want Tag
	}{
		{"secondary_exact", secondary, SecondaryEducation},
		{"secondary_with_extras", append(append([]string{}, secondary...), "sex", "age"), SecondaryEducation},
		{"tertiary_exact", tertiary, TertiaryEducation},
		{"tertiary_with_extras", append(append([]string{}, tertiary...), "universityname"), TertiaryEducation},
		{"tertiary_missing_stype", []string{"dept", "batch", "score", "degreeawardeddate", "status"}, Unrecognized},
		{"secondary_missing_rank", secondary[:len(secondary)-1], Unrecognized},
		{"both_prefers_secondary", append(append([]string{}, secondary...), tertiary...), SecondaryEducation},
		{"unrelated", []string{"name", "city"}, Unrecognized},
		{"none", nil, Unrecognized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.keys))
		})
	}
}

/*
TestClassify_OrderIndependent shuffles the column order many times and
requires the same answer every time.
*/
func TestClassify_OrderIndependent(t *testing.T) {
	keys := append(RequiredKeys(TertiaryEducation), "sex", "universityname")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(keys), func(a, b int) { keys[a], keys[b] = keys[b], keys[a] })
		require.Equal(t, TertiaryEducation, Classify(keys))
	}
}

func TestClassifyRows_Empty(t *testing.T) {
	tag, err := ClassifyRows(nil)
	assert.Equal(t, Unrecognized, tag)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

/*
TestClassifyRows_UsesFirstRowOnly verifies that later rows never influence
the decision, even when they would match a schema.
*/
func TestClassifyRows_UsesFirstRowOnly(t *testing.T) {
	rows := []records.Record{
		rowWith("name"),
		rowWith(RequiredKeys(TertiaryEducation)...),
	}
	tag, err := ClassifyRows(rows)
	assert.Equal(t, Unrecognized, tag)
	require.Error(t, err)

	rows[0], rows[1] = rows[1], rows[0]
	tag, err = ClassifyRows(rows)
	require.NoError(t, err)
	assert.Equal(t, TertiaryEducation, tag)
}

/*
TestClassifyRows_MismatchDiagnostic verifies the diagnostic lists both full
expected key sets plus the observed keys, and reports what is missing.
*/
func TestClassifyRows_MismatchDiagnostic(t *testing.T) {
	_, err := ClassifyRows([]records.Record{rowWith("name", "dept", "city")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, RequiredKeys(SecondaryEducation), mm.Expected[SecondaryEducation])
	assert.Equal(t, RequiredKeys(TertiaryEducation), mm.Expected[TertiaryEducation])
	assert.Equal(t, []string{"city", "dept", "name"}, mm.Found)

	missing := mm.Missing()
	assert.Equal(t, []string{"batch", "score", "degreeawardeddate", "status", "stype"}, missing[TertiaryEducation])
	assert.Len(t, missing[SecondaryEducation], 11)

	msg := err.Error()
	for _, k := range append(RequiredKeys(SecondaryEducation), RequiredKeys(TertiaryEducation)...) {
		assert.Contains(t, msg, k)
	}
}

func TestRequiredKeys_ReturnsCopy(t *testing.T) {
	k := RequiredKeys(TertiaryEducation)
	k[0] = "mutated"
	assert.Equal(t, "dept", RequiredKeys(TertiaryEducation)[0])
	assert.Nil(t, RequiredKeys(Unrecognized))
}

func TestTag_ParseAndText(t *testing.T) {
	for _, tag := range []Tag{Unrecognized, SecondaryEducation, TertiaryEducation} {
		got, err := ParseTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, got)
	}
	got, err := ParseTag("HighSchool")
	require.NoError(t, err)
	assert.Equal(t, SecondaryEducation, got)

	_, err = ParseTag("college")
	assert.Error(t, err)

	var tag Tag
	require.NoError(t, tag.UnmarshalText([]byte("University")))
	assert.Equal(t, TertiaryEducation, tag)
	b, _ := tag.MarshalText()
	assert.Equal(t, "TertiaryEducation", string(b))
}
