package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bananaReply = `{"meal_log_data":{"is_meal_log":true,"meal_name":"Banana","calories":105,"protein":1,"carbs":27,"fat":0,"response_text":"Yum! Logged your banana."},"is_general_query":false}`

func TestStripFence(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "bare", raw: `{"a":1}`, expected: `{"a":1}`},
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "plain fence", raw: "```\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "upper tag", raw: "```JSON {\"a\":1}```", expected: `{"a":1}`},
		{name: "surrounding space", raw: "  \n```json\n{\"a\":1}\n```  \n", expected: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFence(tt.raw))
		})
	}
}

func TestInterpretMealLog(t *testing.T) {
	for _, raw := range []string{bananaReply, "```json\n" + bananaReply + "\n```"} {
		result, err := Interpret(raw)
		require.NoError(t, err)

		assert.Equal(t, KindMealLog, result.Kind)
		require.NotNil(t, result.Meal)
		assert.Equal(t, MealEstimate{
			Name: "Banana", Calories: 105, Protein: 1, Carbs: 27, Fat: 0,
			Confirmation: "Yum! Logged your banana.",
		}, *result.Meal)
		assert.Equal(t, "Yum! Logged your banana.", result.Reply())
	}
}

func TestInterpretKeepsValuesUntouched(t *testing.T) {
	raw := `{"meal_log_data":{"is_meal_log":true,"meal_name":"Mystery","calories":-40,"protein":100000,"carbs":0,"fat":7,"response_text":"ok"}}`

	result, err := Interpret(raw)
	require.NoError(t, err)
	assert.Equal(t, -40, result.Meal.Calories)
	assert.Equal(t, 100000, result.Meal.Protein)
}

func TestInterpretGeneral(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "general response",
			raw:      `{"is_general_query":true,"general_response":"Try **oats**."}`,
			expected: "Try **oats**.",
		},
		{
			name:     "meal flag false",
			raw:      `{"meal_log_data":{"is_meal_log":false,"meal_name":"","calories":0,"protein":0,"carbs":0,"fat":0,"response_text":""},"is_general_query":true,"general_response":"Hello!"}`,
			expected: "Hello!",
		},
		{
			name:     "empty text falls back",
			raw:      `{"is_general_query":true,"general_response":"  "}`,
			expected: UnclearReply,
		},
		{
			name:     "empty object falls back",
			raw:      `{}`,
			expected: UnclearReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Interpret(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, KindGeneral, result.Kind)
			assert.Nil(t, result.Meal)
			assert.Equal(t, tt.expected, result.Reply())
		})
	}
}

func TestInterpretMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "prose", raw: "Sure! Here is your answer."},
		{name: "null", raw: "null"},
		{name: "array", raw: `[1,2]`},
		{name: "truncated", raw: `{"meal_log_data":{"is_meal_log":true`},
		{name: "trailing garbage", raw: bananaReply + " thanks"},
		{name: "missing macro", raw: `{"meal_log_data":{"is_meal_log":true,"meal_name":"Toast","calories":80,"protein":3,"carbs":15,"response_text":"ok"}}`},
		{name: "missing confirmation", raw: `{"meal_log_data":{"is_meal_log":true,"meal_name":"Toast","calories":80,"protein":3,"carbs":15,"fat":1}}`},
		{name: "fractional macro", raw: `{"meal_log_data":{"is_meal_log":true,"meal_name":"Toast","calories":80.5,"protein":3,"carbs":15,"fat":1,"response_text":"ok"}}`},
		{name: "string macro", raw: `{"meal_log_data":{"is_meal_log":true,"meal_name":"Toast","calories":"80","protein":3,"carbs":15,"fat":1,"response_text":"ok"}}`},
		{name: "wrong flag type", raw: `{"meal_log_data":{"is_meal_log":"yes"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Interpret(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
