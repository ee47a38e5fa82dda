// internal/storage/store.go
package storage

import (
	"errors"
	"fmt"

	"nutripal/internal/models"
)

// ErrCorrupt marks a stored blob that was read but could not be decoded.
var ErrCorrupt = errors.New("stored data is corrupt")

// Store persists the three independent blobs of application state. Each Load
// returns the default value when nothing has been saved yet, and an error
// wrapping ErrCorrupt when the stored value cannot be decoded. Each Save
// replaces the stored blob in full.
type Store interface {
	LoadSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
	LoadAccounts() ([]models.Account, error)
	SaveAccounts([]models.Account) error
	LoadMealLogs() ([]models.MealLog, error)
	SaveMealLogs([]models.MealLog) error
	Close() error
}

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Open returns the store for the named backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStorage(path)
	case BackendBolt:
		return NewBoltStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
