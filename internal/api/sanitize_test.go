package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nutripal/internal/models"
)

func TestSanitizeReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"markdown kept", "Eat more **greens**", "Eat more **greens**"},
		{"script dropped", "<script>alert(1)</script>hi", "hi"},
		{"blockquote restored", "> tip: add peas\n>> nested", "> tip: add peas\n>> nested"},
		{"inline gt stays encoded", "a > b", "a &gt; b"},
		{"ampersand encoded", "Mac & cheese", "Mac &amp; cheese"},
		{"quoted script still stripped", "> <script>alert(1)</script>ok", "> ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeReply(tt.in))
		})
	}
}

func TestPlainReply(t *testing.T) {
	assert.Equal(t, "Mac & cheese\n> tip", plainReply("<em>Mac</em> & cheese\n> tip"))
	assert.Equal(t, "hi", plainReply("<script>alert(1)</script>hi"))
}

func TestSanitizeMessageOnlyTouchesAIMessages(t *testing.T) {
	user := models.ChatMessage{Sender: models.SenderUser, Text: "Mac & cheese <3"}
	assert.Equal(t, user, sanitizeMessage(user))

	ai := models.ChatMessage{Sender: models.SenderAI, Text: "Mac & cheese"}
	assert.Equal(t, "Mac &amp; cheese", sanitizeMessage(ai).Text)
}
