// internal/models/user.go
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Goals holds daily targets as entered by the user. Each value is a numeric
// string or empty when unset.
type Goals struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

type UserProfile struct {
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	Preferences string `json:"preferences"`
	Allergies   string `json:"allergies"`
	Goals       Goals  `json:"goals"`
}

// DefaultGoal is assigned to every new profile.
const DefaultGoal = "General Wellness"

// NewProfile returns the profile a freshly signed up user starts with.
func NewProfile(name string) UserProfile {
	return UserProfile{Name: name, Goal: DefaultGoal}
}

type Account struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Profile      UserProfile `json:"profile"`
	CreatedAt    time.Time   `json:"created_at"`
}
