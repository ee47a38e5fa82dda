// internal/app/session.go
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"nutripal/internal/models"
)

// Session is the per-browser state: who is logged in and the chat so far.
type Session struct {
	ID string

	mu          sync.Mutex
	activeEmail string
	role        models.Role
	messages    []models.ChatMessage
	loading     bool
	view        models.View
	showWelcome bool
}

// SessionState is a point-in-time copy of a Session.
type SessionState struct {
	ID            string               `json:"id"`
	Authenticated bool                 `json:"authenticated"`
	Email         string               `json:"email,omitempty"`
	Role          models.Role          `json:"role,omitempty"`
	Messages      []models.ChatMessage `json:"messages"`
	Loading       bool                 `json:"loading"`
	View          models.View          `json:"view"`
	ShowWelcome   bool                 `json:"show_welcome"`
}

func newSession() *Session {
	return &Session{ID: uuid.NewString(), view: models.ViewChat}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		ID:            s.ID,
		Authenticated: s.activeEmail != "",
		Email:         s.activeEmail,
		Role:          s.role,
		Messages:      append([]models.ChatMessage{}, s.messages...),
		Loading:       s.loading,
		View:          s.view,
		ShowWelcome:   s.showWelcome,
	}
}

// Email returns the logged-in account, or "" when nobody is.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeEmail
}

func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeEmail != "" && s.role == models.RoleAdmin
}

func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage{}, s.messages...)
}

func (s *Session) reset() {
	s.activeEmail = ""
	s.role = ""
	s.messages = nil
	s.loading = false
	s.view = models.ViewChat
	s.showWelcome = false
}

// Sessions keeps live sessions in memory. Every lookup extends the entry's
// lifetime by the configured max age.
type Sessions struct {
	cache  *cache.Cache
	maxAge time.Duration
}

func NewSessions(maxAge time.Duration) *Sessions {
	return &Sessions{
		cache:  cache.New(maxAge, maxAge/2+time.Minute),
		maxAge: maxAge,
	}
}

func (s *Sessions) Create() *Session {
	sess := newSession()
	s.cache.Set(sess.ID, sess, s.maxAge)
	return sess
}

func (s *Sessions) Get(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.Set(id, sess, s.maxAge)
	return sess, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired.
func (s *Sessions) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess
		}
	}
	return s.Create()
}

func (s *Sessions) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

// each visits every live session.
func (s *Sessions) each(fn func(*Session)) {
	for _, item := range s.cache.Items() {
		fn(item.Object.(*Session))
	}
}
