// internal/accounts/accounts.go
package accounts

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"nutripal/internal/models"
)

// Errors carry the message shown to the user.
var (
	ErrMissingFields       = errors.New("Please fill in all required fields.")
	ErrPasswordMismatch    = errors.New("Passwords do not match.")
	ErrEmailTaken          = errors.New("An account with this email already exists.")
	ErrInvalidCredentials  = errors.New("Invalid email or password.")
	ErrInvalidAdmin        = errors.New("Invalid Administrator credentials.")
	ErrAdminAsUser         = errors.New("Cannot log in to admin account as a user. Please select the Administrator role.")
	ErrNotFound            = errors.New("Account not found.")
	ErrCannotDeleteSelf    = errors.New("You cannot delete the account you are logged in with.")
	ErrCannotDeleteAdmin   = errors.New("The administrator account cannot be deleted.")
	ErrUnknownRole         = errors.New("Unknown role.")
	ErrPasswordTooShort    = errors.New("Password must be at least 8 characters long.")
	ErrPasswordNoUppercase = errors.New("Password must contain at least one uppercase letter.")
	ErrPasswordNoDigit     = errors.New("Password must contain at least one number.")
	ErrPasswordNoSymbol    = errors.New("Password must contain at least one special character.")
)

// SignupSuccess is shown after a successful signup.
const SignupSuccess = "Sign up successful! Please log in."

// Persister writes the full account list.
type Persister interface {
	SaveAccounts([]models.Account) error
}

// Directory holds every account in signup order.
type Directory struct {
	mu         sync.RWMutex
	accounts   []models.Account
	persister  Persister
	adminEmail string
	hashCost   int
	now        func() time.Time
}

type Option func(*Directory)

func WithHashCost(cost int) Option {
	return func(d *Directory) {
		d.hashCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		d.now = now
	}
}

func New(accounts []models.Account, p Persister, adminEmail string, opts ...Option) *Directory {
	d := &Directory{
		accounts:   append([]models.Account(nil), accounts...),
		persister:  p,
		adminEmail: NormalizeEmail(adminEmail),
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NormalizeEmail is applied to every email used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword reports the first rule password breaks.
func ValidatePassword(password string) error {
	switch {
	case len([]rune(password)) < 8:
		return ErrPasswordTooShort
	case !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }):
		return ErrPasswordNoUppercase
	case !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }):
		return ErrPasswordNoDigit
	case !strings.ContainsFunc(password, isSymbol):
		return ErrPasswordNoSymbol
	}
	return nil
}

func isSymbol(r rune) bool {
	return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
}

func (d *Directory) AdminEmail() string {
	return d.adminEmail
}

func (d *Directory) IsAdmin(email string) bool {
	return NormalizeEmail(email) == d.adminEmail
}

// EnsureAdmin creates the administrator account when the directory is empty.
func (d *Directory) EnsureAdmin(password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.accounts) > 0 {
		return nil
	}
	hash, err := d.hash(password)
	if err != nil {
		return err
	}
	d.accounts = append(d.accounts, models.Account{
		Email:        d.adminEmail,
		PasswordHash: hash,
		Profile: models.UserProfile{
			Name:        "Admin User",
			Goal:        models.DefaultGoal,
			Preferences: "Loves spicy food",
			Goals:       models.Goals{Calories: "2000", Protein: "120", Carbs: "150", Fat: "60"},
		},
		CreatedAt: d.now(),
	})
	log.Info("seeded administrator account", "email", d.adminEmail)
	d.persistLocked()
	return nil
}

// Signup creates a user account with a fresh profile.
func (d *Directory) Signup(name, email, password, confirm string) error {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	hash, err := d.hash(password)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.findLocked(email); ok {
		return ErrEmailTaken
	}
	d.accounts = append(d.accounts, models.Account{
		Email:        email,
		PasswordHash: hash,
		Profile:      models.NewProfile(name),
		CreatedAt:    d.now(),
	})
	d.persistLocked()
	return nil
}

// Login checks credentials for role and returns the account.
func (d *Directory) Login(email, password string, role models.Role) (models.Account, error) {
	email = NormalizeEmail(email)

	switch role {
	case models.RoleAdmin:
		if email != d.adminEmail {
			return models.Account{}, ErrInvalidAdmin
		}
		acc, err := d.authenticate(email, password)
		if err != nil {
			return models.Account{}, ErrInvalidAdmin
		}
		return acc, nil
	case models.RoleUser, "":
		if email == d.adminEmail {
			return models.Account{}, ErrAdminAsUser
		}
		return d.authenticate(email, password)
	default:
		return models.Account{}, ErrUnknownRole
	}
}

func (d *Directory) authenticate(email, password string) (models.Account, error) {
	d.mu.RLock()
	i, ok := d.findLocked(email)
	var acc models.Account
	if ok {
		acc = d.accounts[i]
	}
	d.mu.RUnlock()
	if !ok {
		return models.Account{}, ErrInvalidCredentials
	}

	if isBcrypt(acc.PasswordHash) {
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			return models.Account{}, ErrInvalidCredentials
		}
		return acc, nil
	}

	// plaintext left over from an older store: compare, then upgrade
	if subtle.ConstantTimeCompare([]byte(acc.PasswordHash), []byte(password)) != 1 {
		return models.Account{}, ErrInvalidCredentials
	}
	d.upgradeHash(email, password)
	return acc, nil
}

func (d *Directory) upgradeHash(email, password string) {
	hash, err := d.hash(password)
	if err != nil {
		log.Error("failed to upgrade password hash", "email", email, "error", err)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.findLocked(email); ok {
		d.accounts[i].PasswordHash = hash
		d.persistLocked()
	}
}

func isBcrypt(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}

func (d *Directory) Get(email string) (models.Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.findLocked(NormalizeEmail(email))
	if !ok {
		return models.Account{}, false
	}
	return d.accounts[i], true
}

// List returns every account in signup order.
func (d *Directory) List() []models.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked()
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts)
}

func (d *Directory) UpdateProfile(email string, profile models.UserProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.findLocked(NormalizeEmail(email))
	if !ok {
		return ErrNotFound
	}
	d.accounts[i].Profile = profile
	d.persistLocked()
	return nil
}

// Delete removes the account. Meal logs are the caller's to cascade.
func (d *Directory) Delete(email string) error {
	email = NormalizeEmail(email)
	if email == d.adminEmail {
		return ErrCannotDeleteAdmin
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.findLocked(email); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	d.accounts = lo.Reject(d.accounts, func(a models.Account, _ int) bool {
		return a.Email == email
	})
	d.persistLocked()
	return nil
}

func (d *Directory) findLocked(email string) (int, bool) {
	_, i, ok := lo.FindIndexOf(d.accounts, func(a models.Account) bool {
		return a.Email == email
	})
	return i, ok
}

func (d *Directory) snapshotLocked() []models.Account {
	return append([]models.Account(nil), d.accounts...)
}

func (d *Directory) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// persistLocked writes every account while d.mu is held, so saves land in
// mutation order.
func (d *Directory) persistLocked() {
	if d.persister == nil {
		return
	}
	if err := d.persister.SaveAccounts(d.snapshotLocked()); err != nil {
		log.Error("failed to persist accounts, changes not saved", "error", err)
	}
}
