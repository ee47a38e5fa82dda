// internal/models/chat.go
package models

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type ChatMessage struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
	Image  string `json:"image,omitempty"` // data URL
}

type View string

const (
	ViewChat     View = "chat"
	ViewProgress View = "progress"
	ViewGoals    View = "goals"
	ViewHistory  View = "history"
	ViewSettings View = "settings"
	ViewAdmin    View = "admin"
)
