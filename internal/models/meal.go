// internal/models/meal.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day format used for MealLog.Date.
const DateLayout = "2006-01-02"

type MealLog struct {
	ID        string `json:"id"`
	UserEmail string `json:"user_email"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Calories  int    `json:"calories"`
	Protein   int    `json:"protein"`
	Carbs     int    `json:"carbs"`
	Fat       int    `json:"fat"`
}

// Macros is the set of four tracked nutritional quantities.
type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

func (m MealLog) Macros() Macros {
	return Macros{Calories: m.Calories, Protein: m.Protein, Carbs: m.Carbs, Fat: m.Fat}
}

func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// NewMealLogID derives a log id from the creation time plus a random suffix,
// so logs created in the same clock tick stay distinct.
func NewMealLogID(t time.Time) string {
	return fmt.Sprintf("meal_%d_%s", t.UnixNano(), uuid.NewString())
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
