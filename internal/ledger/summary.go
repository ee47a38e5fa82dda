// internal/ledger/summary.go
package ledger

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"nutripal/internal/models"
)

// Intake sums the macros of every entry dated date.
func Intake(logs []models.MealLog, date string) models.Macros {
	return sum(ForDate(logs, date))
}

func sum(logs []models.MealLog) models.Macros {
	return lo.Reduce(logs, func(acc models.Macros, m models.MealLog, _ int) models.Macros {
		return acc.Add(m.Macros())
	}, models.Macros{})
}

// Progress returns current as a percentage of goal, capped at 100. Unset,
// unparsable and non-positive goals yield 0.
func Progress(current int, goal string) float64 {
	g, err := strconv.ParseFloat(strings.TrimSpace(goal), 64)
	if err != nil || g <= 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return 0
	}
	return math.Min(float64(current)/g*100, 100)
}

type GoalProgress struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func ProgressTowards(intake models.Macros, goals models.Goals) GoalProgress {
	return GoalProgress{
		Calories: Progress(intake.Calories, goals.Calories),
		Protein:  Progress(intake.Protein, goals.Protein),
		Carbs:    Progress(intake.Carbs, goals.Carbs),
		Fat:      Progress(intake.Fat, goals.Fat),
	}
}

type DailyCalories struct {
	Date     string `json:"date"`
	Calories int    `json:"calories"`
}

// TrendSummary covers the most recent logged days.
type TrendSummary struct {
	Days   []DailyCalories `json:"days"`
	Macros models.Macros   `json:"macros"`
}

// Trend looks at the last n distinct logged dates. Days are returned oldest
// first; Macros totals every entry on those dates.
func Trend(logs []models.MealLog, n int) TrendSummary {
	dates := lo.Uniq(lo.Map(logs, func(m models.MealLog, _ int) string { return m.Date }))
	sort.Strings(dates)
	if len(dates) > n {
		dates = dates[len(dates)-n:]
	}

	summary := TrendSummary{Days: make([]DailyCalories, 0, len(dates))}
	for _, date := range dates {
		day := sum(ForDate(logs, date))
		summary.Days = append(summary.Days, DailyCalories{Date: date, Calories: day.Calories})
		summary.Macros = summary.Macros.Add(day)
	}
	return summary
}
