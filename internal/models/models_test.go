package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.NoError(t, Settings{Theme: ThemeSunrise, FontSize: FontSizeLarge, BackgroundImage: "data:image/png;base64,AA=="}.Validate())

	err := Settings{Theme: "neon", FontSize: FontSizeSmall}.Validate()
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), `"neon"`)

	err = Settings{Theme: ThemeOcean, FontSize: "xl"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestDateOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	assert.Equal(t, "2026-10-18", DateOf(time.Date(2026, 10, 19, 8, 0, 0, 0, loc)))
	assert.Equal(t, "2026-10-19", DateOf(time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)))
}

func TestMacros(t *testing.T) {
	m := MealLog{Calories: 105, Protein: 1, Carbs: 27, Fat: 0}.Macros()
	assert.Equal(t, Macros{Calories: 210, Protein: 2, Carbs: 54}, m.Add(m))
}

func TestNewMealLogIDUniqueWithinTick(t *testing.T) {
	at := time.Unix(0, 1)
	first, second := NewMealLogID(at), NewMealLogID(at)
	assert.True(t, strings.HasPrefix(first, "meal_1_"), first)
	assert.NotEqual(t, first, second)
}
