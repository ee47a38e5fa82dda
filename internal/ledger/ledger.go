// internal/ledger/ledger.go
package ledger

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"nutripal/internal/models"
)

// Persister writes the full meal-log history.
type Persister interface {
	SaveMealLogs([]models.MealLog) error
}

// Ledger is the append-only meal history, newest entry first.
type Ledger struct {
	mu        sync.RWMutex
	logs      []models.MealLog
	persister Persister
}

// New returns a ledger seeded with logs, which must already be newest first.
func New(logs []models.MealLog, p Persister) *Ledger {
	return &Ledger{logs: append([]models.MealLog(nil), logs...), persister: p}
}

// Append prepends entry. Nothing is merged or validated.
func (l *Ledger) Append(entry models.MealLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append([]models.MealLog{entry}, l.logs...)
	l.persistLocked()
}

// DeleteForUser removes every entry owned by email and returns how many went.
func (l *Ledger) DeleteForUser(email string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.logs)
	l.logs = lo.Reject(l.logs, func(m models.MealLog, _ int) bool {
		return m.UserEmail == email
	})
	removed := before - len(l.logs)
	if removed > 0 {
		l.persistLocked()
	}
	return removed
}

// All returns a copy of the whole history.
func (l *Ledger) All() []models.MealLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.logs)
}

// ForUser returns the entries owned by email.
func (l *Ledger) ForUser(email string) []models.MealLog {
	return ForUser(l.All(), email)
}

// HasLogs reports whether email owns at least one entry.
func (l *Ledger) HasLogs(email string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.ContainsBy(l.logs, func(m models.MealLog) bool {
		return m.UserEmail == email
	})
}

func (l *Ledger) snapshotLocked() []models.MealLog {
	return append([]models.MealLog(nil), l.logs...)
}

// persistLocked writes the history while l.mu is held, so saves land in
// mutation order. Failures are logged; the in-memory history stays
// authoritative.
func (l *Ledger) persistLocked() {
	if l.persister == nil {
		return
	}
	if err := l.persister.SaveMealLogs(l.snapshotLocked()); err != nil {
		log.Error("failed to persist meal logs, changes not saved", "error", err)
	}
}

// ForUser filters logs by owner, preserving order.
func ForUser(logs []models.MealLog, email string) []models.MealLog {
	return lo.Filter(logs, func(m models.MealLog, _ int) bool {
		return m.UserEmail == email
	})
}

// ForDate filters logs by exact date match, preserving order. An empty date
// returns logs unchanged.
func ForDate(logs []models.MealLog, date string) []models.MealLog {
	if date == "" {
		return logs
	}
	return lo.Filter(logs, func(m models.MealLog, _ int) bool {
		return m.Date == date
	})
}
