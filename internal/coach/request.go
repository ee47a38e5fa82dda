// internal/coach/request.go
package coach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"nutripal/internal/models"
)

var ErrInvalidImage = errors.New("image must be a base64 data URL of an image")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Schema is the subset of JSON Schema used to constrain replies.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type GenerateRequest struct {
	SystemInstruction string    `json:"system_instruction"`
	Contents          []Content `json:"contents"`
	ResponseMIMEType  string    `json:"response_mime_type"`
	ResponseSchema    *Schema   `json:"response_schema"`
}

// ReplySchema is the two-branch shape every reply must follow.
var ReplySchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"meal_log_data": {
			Type: "object",
			Properties: map[string]*Schema{
				"is_meal_log":   {Type: "boolean", Description: "Set to true only if the user is describing a meal they ate."},
				"meal_name":     {Type: "string", Description: "A descriptive name for the meal, e.g., 'Chicken Salad with Avocado'."},
				"calories":      {Type: "integer", Description: "Estimated total calories (kcal) for the meal."},
				"protein":       {Type: "integer", Description: "Estimated grams of protein."},
				"carbs":         {Type: "integer", Description: "Estimated grams of carbohydrates."},
				"fat":           {Type: "integer", Description: "Estimated grams of fat."},
				"response_text": {Type: "string", Description: "A friendly confirmation message for the user followed by a brief nutritional analysis based on their goals."},
			},
			Required: []string{"is_meal_log", "meal_name", "calories", "protein", "carbs", "fat", "response_text"},
		},
		"is_general_query": {Type: "boolean", Description: "Set to true if this is NOT a meal log and requires a conversational response."},
		"general_response": {Type: "string", Description: "The full conversational markdown response for non-meal-log queries."},
	},
}

// ParseDataURL splits a "data:<mime>;base64,<data>" URL.
func ParseDataURL(dataURL string) (*InlineData, error) {
	header, data, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, ErrInvalidImage
	}
	mimeType, encoding, ok := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if !ok || encoding != "base64" || !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrInvalidImage
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return &InlineData{MimeType: mimeType, Data: data}, nil
}

// AssembleRequest turns the conversation so far and the new turn into one
// request. Prior turns are sent as text only; an oversized photo is scaled
// down first.
func AssembleRequest(history []models.ChatMessage, text, image, instruction string) (*GenerateRequest, error) {
	contents := make([]Content, 0, len(history)+1)
	for _, msg := range history {
		role := RoleUser
		if msg.Sender == models.SenderAI {
			role = RoleModel
		}
		contents = append(contents, Content{Role: role, Parts: []Part{{Text: msg.Text}}})
	}

	var parts []Part
	if image != "" {
		inline, err := ParseDataURL(image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Part{InlineData: shrinkImage(inline)})
	}
	parts = append(parts, Part{Text: text})
	contents = append(contents, Content{Role: RoleUser, Parts: parts})

	return &GenerateRequest{
		SystemInstruction: instruction,
		Contents:          contents,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ReplySchema,
	}, nil
}
