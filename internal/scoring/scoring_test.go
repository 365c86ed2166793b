package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	for _, tag := range []string{
		"multiple_choice", "true_false", "sata", "select_n", "ordering",
		"bowtie", "dosage_calculation", "highlight_text", "extended_drag_drop",
		"cloze_dropdown", "matrix_multiple_response", "trend_item",
	} {
		e, err := Resolve(tag)
		require.NoError(t, err, tag)
		require.NotNil(t, e.Validate, tag)
		require.NotNil(t, e.DefaultAnswer, tag)
	}

	_, err := Resolve("essay")
	assert.ErrorIs(t, err, ErrUnknownQuestionType)
}

func TestValidateUnknownType(t *testing.T) {
	_, err := Validate("short_answer", json.RawMessage(`"a"`), json.RawMessage(`"a"`), nil)
	assert.ErrorIs(t, err, ErrUnknownQuestionType)
}

func TestPointsRoundHalfUp(t *testing.T) {
	tests := []struct {
		fraction float64
		max      int
		want     int
	}{
		{1, 1, 1},
		{0, 5, 0},
		{0.5, 1, 1},       // half rounds up
		{0.25, 2, 1},      // 0.5 rounds up
		{2.0 / 3.0, 2, 1}, // 1.33 rounds down
		{2.0 / 3.0, 3, 2},
		{0.1, 2, 0},
		{1, 0, 0},
		{-0.5, 3, 0},
		{1.5, 2, 2}, // clamped
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Points(tc.fraction, tc.max), "Points(%v, %d)", tc.fraction, tc.max)
	}
}

func TestVerdictForBounds(t *testing.T) {
	v := verdictFor(1)
	assert.True(t, v.IsCorrect)
	assert.False(t, v.IsPartiallyCorrect)
	assert.Equal(t, 1.0, v.Fraction)

	v = verdictFor(0)
	assert.False(t, v.IsCorrect)
	assert.False(t, v.IsPartiallyCorrect)
	assert.Equal(t, 0.0, v.Fraction)

	v = verdictFor(0.5)
	assert.False(t, v.IsCorrect)
	assert.True(t, v.IsPartiallyCorrect)
	assert.Equal(t, 0.5, v.Fraction)
}
