package jsonpartial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseComplete(t *testing.T) {
	r, err := Parse(`{"a": 1, "b": [1,2,3]}`)
	require.NoError(t, err)
	require.Equal(t, OutcomeComplete, r.Outcome)
	require.NotNil(t, r.Value)
}

func TestParseEmptyIsNone(t *testing.T) {
	r, err := Parse(``)
	require.NoError(t, err)
	require.Equal(t, OutcomeNone, r.Outcome)
}

func TestParseStructurallyInvalid(t *testing.T) {
	r, err := Parse(`{"a" "b"}`)
	require.NoError(t, err)
	require.Equal(t, OutcomeNone, r.Outcome)
}

// TestHealTruncatedStringValue exercises scenario 6: a dict value string
// cut mid-way, healed with a caller-chosen magic placeholder.
func TestHealTruncatedStringValue(t *testing.T) {
	r, err := Parse(`{"a": "Par`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(ValueInsideString))
	require.True(t, r.Partial.Flags().Has(DictInsideValue))

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Equal(t, `{"a": "ParZ"}`, healed.JSON)
	require.Equal(t, "Z", healed.Magic)

	m, ok := healed.Value.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ParZ", m["a"])

	replaced, err := healed.ReplacePath("a", "Paris")
	require.NoError(t, err)
	require.JSONEq(t, `{"a": "Paris"}`, replaced)
}

func TestHealBeforeDictValue(t *testing.T) {
	r, err := Parse(`{"a":`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(DictBeforeValue))

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Equal(t, `{"a":"Z"}`, healed.JSON)
}

func TestHealTopLevelString(t *testing.T) {
	r, err := Parse(`"Par`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(ValueInsideString))

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Equal(t, `"ParZ"`, healed.JSON)
	require.Equal(t, "Z", healed.Magic)
}

func TestHealMidEscape(t *testing.T) {
	r, err := Parse(`{"a": "x\`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(ValueInsideStringAfterEscape))

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Equal(t, `{"a": "xZ"}`, healed.JSON)
}

func TestHealMidIdentIsUnhealable(t *testing.T) {
	r, err := Parse(`{"a": tru`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(ValueInsideIdent))

	_, err = r.Partial.Heal("Z")
	require.ErrorIs(t, err, ErrUnhealable)
}

func TestHealAfterDictValueAddsNextKey(t *testing.T) {
	r, err := Parse(`{"a": 1, `)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Contains(t, healed.JSON, `"Z": null`)
}

func TestHealArrayBeforeValue(t *testing.T) {
	r, err := Parse(`[1, 2, `)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(ArrayBeforeValue))

	healed, err := r.Partial.Heal("Z")
	require.NoError(t, err)
	require.Equal(t, `[1, 2, "Z"]`, healed.JSON)
}

func TestTruncatedNumberRevertsToBeforeValue(t *testing.T) {
	r, err := Parse(`{"a": 1.`)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, r.Outcome)
	require.True(t, r.Partial.Flags().Has(DictBeforeValue))
	require.Equal(t, `{"a": `, r.Partial.Source())
}
