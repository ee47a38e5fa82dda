package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nutripal/internal/models"
)

func TestIntake(t *testing.T) {
	logs := []models.MealLog{
		{Date: "2026-10-19", Calories: 105, Protein: 1, Carbs: 27, Fat: 0},
		{Date: "2026-10-19", Calories: 400, Protein: 30, Carbs: 20, Fat: 15},
		{Date: "2026-10-18", Calories: 900, Protein: 40, Carbs: 100, Fat: 30},
	}

	assert.Equal(t, models.Macros{Calories: 505, Protein: 31, Carbs: 47, Fat: 15}, Intake(logs, "2026-10-19"))
	assert.Equal(t, models.Macros{}, Intake(logs, "2026-10-20"))
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		goal     string
		expected float64
	}{
		{name: "unset goal", current: 500, goal: "", expected: 0},
		{name: "garbage goal", current: 500, goal: "lots", expected: 0},
		{name: "zero goal", current: 500, goal: "0", expected: 0},
		{name: "negative goal", current: 500, goal: "-100", expected: 0},
		{name: "halfway", current: 1000, goal: "2000", expected: 50},
		{name: "over goal caps", current: 3000, goal: "2000", expected: 100},
		{name: "padded goal", current: 30, goal: " 120 ", expected: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Progress(tt.current, tt.goal), 0.0001)
		})
	}
}

func TestProgressTowards(t *testing.T) {
	got := ProgressTowards(
		models.Macros{Calories: 1000, Protein: 60, Carbs: 300, Fat: 10},
		models.Goals{Calories: "2000", Protein: "120", Carbs: "150"},
	)
	assert.InDelta(t, 50, got.Calories, 0.0001)
	assert.InDelta(t, 50, got.Protein, 0.0001)
	assert.InDelta(t, 100, got.Carbs, 0.0001)
	assert.InDelta(t, 0, got.Fat, 0.0001)
}

func TestTrend(t *testing.T) {
	var logs []models.MealLog
	dates := []string{"2026-10-10", "2026-10-11", "2026-10-12", "2026-10-13", "2026-10-14", "2026-10-15", "2026-10-16", "2026-10-18", "2026-10-19"}
	// newest first, two meals per day
	for i := len(dates) - 1; i >= 0; i-- {
		logs = append(logs,
			models.MealLog{Date: dates[i], Calories: 100, Protein: 1, Carbs: 2, Fat: 3},
			models.MealLog{Date: dates[i], Calories: 50, Protein: 1, Carbs: 2, Fat: 3},
		)
	}

	trend := Trend(logs, 7)

	if assert.Len(t, trend.Days, 7) {
		assert.Equal(t, "2026-10-12", trend.Days[0].Date)
		assert.Equal(t, "2026-10-19", trend.Days[6].Date)
		assert.Equal(t, 150, trend.Days[3].Calories)
	}
	assert.Equal(t, models.Macros{Calories: 1050, Protein: 14, Carbs: 28, Fat: 42}, trend.Macros)
}

func TestTrendEmpty(t *testing.T) {
	trend := Trend(nil, 7)
	assert.Empty(t, trend.Days)
	assert.Equal(t, models.Macros{}, trend.Macros)
}
