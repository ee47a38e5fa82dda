// internal/api/sanitize.go
package api

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"

	"nutripal/internal/app"
	"nutripal/internal/models"
)

// replyPolicy strips anything unsafe from AI text before it reaches the
// browser, which renders it as markdown. Output is HTML-safe: text characters
// come back entity-encoded (& as &amp;), which a markdown renderer displays
// as the original character.
var replyPolicy = newReplyPolicy()

// plainPolicy drops all markup for clients that show text as is.
var plainPolicy = bluemonday.StrictPolicy()

// blockquoteMarkers matches escaped ">" markers at the start of a line.
var blockquoteMarkers = regexp.MustCompile(`(?m)^(?:[ \t]*&gt;)+`)

func newReplyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// sanitizeReply cleans AI markdown for the browser and restores blockquote
// markers, which never open a tag.
func sanitizeReply(text string) string {
	clean := replyPolicy.Sanitize(text)
	return blockquoteMarkers.ReplaceAllStringFunc(clean, func(m string) string {
		return strings.ReplaceAll(m, "&gt;", ">")
	})
}

// plainReply strips every tag and decodes entities, for MCP callers.
func plainReply(text string) string {
	return html.UnescapeString(plainPolicy.Sanitize(text))
}

// sanitizeMessage cleans AI messages. The user's own messages pass through.
func sanitizeMessage(m models.ChatMessage) models.ChatMessage {
	if m.Sender == models.SenderAI {
		m.Text = sanitizeReply(m.Text)
	}
	return m
}

func sanitizeMessages(messages []models.ChatMessage) []models.ChatMessage {
	return lo.Map(messages, func(m models.ChatMessage, _ int) models.ChatMessage {
		return sanitizeMessage(m)
	})
}

func sanitizeState(state app.SessionState) app.SessionState {
	state.Messages = sanitizeMessages(state.Messages)
	return state
}
