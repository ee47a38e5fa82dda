// internal/coach/interpret.go
package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedResponse = errors.New("malformed AI response")

const (
	// FallbackReply is shown for every failed or unreadable AI call.
	FallbackReply = "Sorry, I'm having a little trouble connecting to my knowledge base. Please try again in a moment!"
	// UnclearReply is shown when a general reply arrives without text.
	UnclearReply = "I'm not sure how to respond to that. Could you try rephrasing?"
)

type Kind string

const (
	KindMealLog Kind = "meal_log"
	KindGeneral Kind = "general"
)

// MealEstimate is the meal-log branch of a reply, exactly as the model sent it.
type MealEstimate struct {
	Name         string `json:"name"`
	Calories     int    `json:"calories"`
	Protein      int    `json:"protein"`
	Carbs        int    `json:"carbs"`
	Fat          int    `json:"fat"`
	Confirmation string `json:"confirmation"`
}

// Result is either a meal log (Meal set) or a general reply (Text set).
type Result struct {
	Kind Kind          `json:"kind"`
	Meal *MealEstimate `json:"meal,omitempty"`
	Text string        `json:"text,omitempty"`
}

// Reply is the text to show the user.
func (r Result) Reply() string {
	if r.Kind == KindMealLog && r.Meal != nil {
		return r.Meal.Confirmation
	}
	return r.Text
}

func General(text string) Result {
	return Result{Kind: KindGeneral, Text: text}
}

type wireMealLog struct {
	IsMealLog    *bool   `json:"is_meal_log"`
	MealName     *string `json:"meal_name"`
	Calories     *int    `json:"calories"`
	Protein      *int    `json:"protein"`
	Carbs        *int    `json:"carbs"`
	Fat          *int    `json:"fat"`
	ResponseText *string `json:"response_text"`
}

type wireReply struct {
	MealLogData     *wireMealLog `json:"meal_log_data"`
	IsGeneralQuery  bool         `json:"is_general_query"`
	GeneralResponse string       `json:"general_response"`
}

// StripFence removes a surrounding markdown code fence, with or without a
// json tag.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Interpret validates a raw reply and converts it to a Result. Any deviation
// from the reply schema is ErrMalformedResponse.
func Interpret(raw string) (Result, error) {
	payload := StripFence(raw)
	if !strings.HasPrefix(payload, "{") {
		return Result{}, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}

	var reply wireReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	m := reply.MealLogData
	if m == nil || m.IsMealLog == nil || !*m.IsMealLog {
		text := reply.GeneralResponse
		if strings.TrimSpace(text) == "" {
			text = UnclearReply
		}
		return General(text), nil
	}

	if m.MealName == nil || m.Calories == nil || m.Protein == nil ||
		m.Carbs == nil || m.Fat == nil || m.ResponseText == nil {
		return Result{}, fmt.Errorf("%w: meal log is missing required fields", ErrMalformedResponse)
	}

	return Result{
		Kind: KindMealLog,
		Meal: &MealEstimate{
			Name:         *m.MealName,
			Calories:     *m.Calories,
			Protein:      *m.Protein,
			Carbs:        *m.Carbs,
			Fat:          *m.Fat,
			Confirmation: *m.ResponseText,
		},
	}, nil
}
