// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"nutripal/internal/accounts"
	"nutripal/internal/coach"
	"nutripal/internal/ledger"
	"nutripal/internal/models"
	"nutripal/internal/storage"
)

var (
	ErrEmptyMessage    = errors.New("Cannot send an empty message.")
	ErrRequestInFlight = errors.New("Please wait for the current reply before sending another message.")
	ErrNotLoggedIn     = errors.New("Please log in first.")
	ErrForbidden       = errors.New("Administrator access required.")
	ErrUnknownView     = errors.New("Unknown page.")
)

// TrendDays is how many logged days the progress trend covers.
const TrendDays = 7

const greetingFormat = "Hey there, %s! I'm NutriPal, your friendly wellness coach, and I'm super excited to help you on your health journey! You can ask me anything about nutrition, show me a picture of your food, or ask for a recipe. Let's do this!"

// Replier answers one chat turn.
type Replier interface {
	Reply(ctx context.Context, turn coach.Turn) (coach.Result, error)
}

type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionMaxAge time.Duration
	SpeechInput   bool
	HashCost      int
	Now           func() time.Time
}

// App is the whole application state: settings, accounts and the meal
// ledger. Sessions hold the per-browser view of it.
type App struct {
	mu        sync.Mutex
	store     storage.Store
	settings  models.Settings
	directory *accounts.Directory
	ledger    *ledger.Ledger
	coach     Replier
	sessions  *Sessions
	speech    bool
	now       func() time.Time
}

// New loads the three persisted blobs from store and seeds the admin account
// when there are no accounts yet.
func New(store storage.Store, replier Replier, cfg Config) (*App, error) {
	settings, err := loadBlob("settings", store.LoadSettings, models.DefaultSettings())
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		log.Error("stored settings invalid, using defaults", "error", err)
		settings = models.DefaultSettings()
	}
	accs, err := loadBlob("accounts", store.LoadAccounts, nil)
	if err != nil {
		return nil, err
	}
	logs, err := loadBlob("meal logs", store.LoadMealLogs, nil)
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	opts := []accounts.Option{accounts.WithClock(now)}
	if cfg.HashCost > 0 {
		opts = append(opts, accounts.WithHashCost(cfg.HashCost))
	}
	maxAge := cfg.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	a := &App{
		store:     store,
		settings:  settings,
		directory: accounts.New(accs, store, cfg.AdminEmail, opts...),
		ledger:    ledger.New(logs, store),
		coach:     replier,
		sessions:  NewSessions(maxAge),
		speech:    cfg.SpeechInput,
		now:       now,
	}
	if err := a.directory.EnsureAdmin(cfg.AdminPassword); err != nil {
		return nil, err
	}

	log.Info("state loaded", "accounts", a.directory.Len(), "meal_logs", a.ledger.Len())
	return a, nil
}

// loadBlob reads one persisted blob. An undecodable blob is logged and
// replaced by fallback; only storage I/O failures are returned.
func loadBlob[T any](name string, load func() (T, error), fallback T) (T, error) {
	v, err := load()
	if errors.Is(err, storage.ErrCorrupt) {
		log.Error("stored blob unreadable, starting from default", "blob", name, "error", err)
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return v, nil
}

func (a *App) Sessions() *Sessions {
	return a.sessions
}

func (a *App) SpeechInput() bool {
	return a.speech
}

func (a *App) Signup(name, email, password, confirm string) error {
	return a.directory.Signup(name, email, password, confirm)
}

// Login authenticates s and resets its chat to the greeting.
func (a *App) Login(s *Session, email, password string, role models.Role) error {
	acc, err := a.directory.Login(email, password, role)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.activeEmail = acc.Email
	s.role = role
	s.messages = []models.ChatMessage{{
		ID:     uuid.NewString(),
		Sender: models.SenderAI,
		Text:   fmt.Sprintf(greetingFormat, acc.Profile.Name),
	}}
	if role == models.RoleAdmin {
		s.view = models.ViewAdmin
	} else {
		s.view = models.ViewChat
		s.showWelcome = !a.ledger.HasLogs(acc.Email)
	}

	log.Info("user logged in", "email", acc.Email, "role", role)
	return nil
}

func (a *App) Logout(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (a *App) Navigate(s *Session, view models.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeEmail == "" {
		return ErrNotLoggedIn
	}
	switch view {
	case models.ViewChat, models.ViewProgress, models.ViewGoals, models.ViewHistory, models.ViewSettings:
	case models.ViewAdmin:
		if s.role != models.RoleAdmin {
			return ErrForbidden
		}
	default:
		return ErrUnknownView
	}
	s.view = view
	return nil
}

func (a *App) DismissWelcome(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showWelcome = false
}

// SendMessage runs one chat turn for s and returns the AI message. The AI
// call happens without holding any lock; a second call for the same session
// while one is outstanding gets ErrRequestInFlight.
func (a *App) SendMessage(ctx context.Context, s *Session, text, image string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if image != "" {
		if _, err := coach.ParseDataURL(image); err != nil {
			return models.ChatMessage{}, err
		}
	}

	s.mu.Lock()
	if s.activeEmail == "" {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrNotLoggedIn
	}
	if s.loading {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrRequestInFlight
	}
	email := s.activeEmail
	history := append([]models.ChatMessage(nil), s.messages...)
	s.messages = append(s.messages, models.ChatMessage{
		ID:     uuid.NewString(),
		Sender: models.SenderUser,
		Text:   text,
		Image:  image,
	})
	s.loading = true
	s.mu.Unlock()

	var profile *models.UserProfile
	if acc, ok := a.directory.Get(email); ok {
		profile = &acc.Profile
	}

	result, err := a.coach.Reply(ctx, coach.Turn{History: history, Text: text, Image: image, Profile: profile})
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return models.ChatMessage{}, err
	}

	if result.Kind == coach.KindMealLog && result.Meal != nil {
		a.logMeal(email, *result.Meal)
	}

	reply := models.ChatMessage{ID: uuid.NewString(), Sender: models.SenderAI, Text: result.Reply()}
	s.mu.Lock()
	// a logout during the call has already cleared the chat
	if s.activeEmail == email {
		s.messages = append(s.messages, reply)
		s.loading = false
		if result.Kind == coach.KindMealLog {
			s.showWelcome = false
		}
	}
	s.mu.Unlock()
	return reply, nil
}

func (a *App) logMeal(email string, meal coach.MealEstimate) {
	now := a.now()
	entry := models.MealLog{
		ID:        models.NewMealLogID(now),
		UserEmail: email,
		Date:      models.DateOf(now),
		Name:      meal.Name,
		Calories:  meal.Calories,
		Protein:   meal.Protein,
		Carbs:     meal.Carbs,
		Fat:       meal.Fat,
	}

	// a.mu orders this against deleteAccount
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.directory.Get(email); !ok {
		log.Warn("account deleted during AI call, meal not logged", "email", email, "meal", entry.Name)
		return
	}
	a.ledger.Append(entry)
	log.Info("meal logged", "email", email, "meal", entry.Name, "calories", entry.Calories)
}

// Profile returns the active account's profile.
func (a *App) Profile(s *Session) (models.UserProfile, error) {
	email := s.Email()
	if email == "" {
		return models.UserProfile{}, ErrNotLoggedIn
	}
	acc, ok := a.directory.Get(email)
	if !ok {
		return models.UserProfile{}, accounts.ErrNotFound
	}
	return acc.Profile, nil
}

func (a *App) UpdateProfile(s *Session, profile models.UserProfile) error {
	email := s.Email()
	if email == "" {
		return ErrNotLoggedIn
	}
	return a.directory.UpdateProfile(email, profile)
}

func (a *App) Settings() models.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// UpdateSettings replaces the settings. They are shared by every account.
func (a *App) UpdateSettings(settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = settings
	if err := a.store.SaveSettings(settings); err != nil {
		log.Error("failed to persist settings, changes not saved", "error", err)
	}
	return nil
}

// History returns the active user's meal logs, newest first, optionally
// limited to one date.
func (a *App) History(s *Session, date string) ([]models.MealLog, error) {
	email := s.Email()
	if email == "" {
		return nil, ErrNotLoggedIn
	}
	return ledger.ForDate(a.ledger.ForUser(email), date), nil
}

type ProgressReport struct {
	Date     string              `json:"date"`
	Intake   models.Macros       `json:"intake"`
	Goals    models.Goals        `json:"goals"`
	Progress ledger.GoalProgress `json:"progress"`
	Trend    ledger.TrendSummary `json:"trend"`
}

func (a *App) Progress(s *Session) (ProgressReport, error) {
	profile, err := a.Profile(s)
	if err != nil {
		return ProgressReport{}, err
	}
	logs := a.ledger.ForUser(s.Email())
	today := models.DateOf(a.now())
	intake := ledger.Intake(logs, today)

	return ProgressReport{
		Date:     today,
		Intake:   intake,
		Goals:    profile.Goals,
		Progress: ledger.ProgressTowards(intake, profile.Goals),
		Trend:    ledger.Trend(logs, TrendDays),
	}, nil
}

type Stats struct {
	TotalUsers int `json:"total_users"`
	TotalMeals int `json:"total_meals"`
}

func (a *App) Stats() Stats {
	return Stats{TotalUsers: a.directory.Len(), TotalMeals: a.ledger.Len()}
}

type UserSummary struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	Admin     bool      `json:"admin"`
	Meals     int       `json:"meals"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *App) Users() []UserSummary {
	logs := a.ledger.All()
	counts := lo.CountValuesBy(logs, func(m models.MealLog) string { return m.UserEmail })
	return lo.Map(a.directory.List(), func(acc models.Account, _ int) UserSummary {
		return UserSummary{
			Email:     acc.Email,
			Name:      acc.Profile.Name,
			Goal:      acc.Profile.Goal,
			Admin:     a.directory.IsAdmin(acc.Email),
			Meals:     counts[acc.Email],
			CreatedAt: acc.CreatedAt,
		}
	})
}

// DeleteUser removes an account together with all of its meal logs and
// returns how many logs went. The caller must be an admin and cannot delete
// itself.
func (a *App) DeleteUser(s *Session, email string) (int, error) {
	if !s.IsAdmin() {
		return 0, ErrForbidden
	}
	if accounts.NormalizeEmail(email) == s.Email() {
		return 0, accounts.ErrCannotDeleteSelf
	}
	return a.deleteAccount(email)
}

// DeleteAccount is the operator path used by the CLI; no session is involved.
func (a *App) DeleteAccount(email string) (int, error) {
	return a.deleteAccount(email)
}

func (a *App) deleteAccount(email string) (int, error) {
	email = accounts.NormalizeEmail(email)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.directory.Delete(email); err != nil {
		return 0, err
	}
	removed := a.ledger.DeleteForUser(email)

	a.sessions.each(func(sess *Session) {
		sess.mu.Lock()
		if sess.activeEmail == email {
			sess.reset()
		}
		sess.mu.Unlock()
	})

	log.Info("user deleted", "email", email, "meal_logs_removed", removed)
	return removed, nil
}

func (a *App) Close() error {
	return a.store.Close()
}
