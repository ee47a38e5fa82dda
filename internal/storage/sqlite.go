// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"nutripal/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS settings (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        theme TEXT NOT NULL,
        font_size TEXT NOT NULL,
        background_image TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS accounts (
        email TEXT PRIMARY KEY,
        position INTEGER NOT NULL,
        password_hash TEXT NOT NULL,
        name TEXT NOT NULL,
        goal TEXT NOT NULL,
        preferences TEXT NOT NULL,
        allergies TEXT NOT NULL,
        goal_calories TEXT NOT NULL,
        goal_protein TEXT NOT NULL,
        goal_carbs TEXT NOT NULL,
        goal_fat TEXT NOT NULL,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_logs (
        id TEXT PRIMARY KEY,
        position INTEGER NOT NULL,
        user_email TEXT NOT NULL,
        date TEXT NOT NULL,
        name TEXT NOT NULL,
        calories INTEGER NOT NULL,
        protein INTEGER NOT NULL,
        carbs INTEGER NOT NULL,
        fat INTEGER NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_meal_logs_user_email ON meal_logs(user_email);
    CREATE INDEX IF NOT EXISTS idx_meal_logs_date ON meal_logs(date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) LoadSettings() (models.Settings, error) {
	settings := models.DefaultSettings()
	var theme, fontSize string
	err := s.db.QueryRow(`SELECT theme, font_size, background_image FROM settings WHERE id = 1`).
		Scan(&theme, &fontSize, &settings.BackgroundImage)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to query settings: %w", err)
	}
	settings.Theme = models.Theme(theme)
	settings.FontSize = models.FontSize(fontSize)
	return settings, nil
}

func (s *SQLiteStorage) SaveSettings(settings models.Settings) error {
	query := `
        INSERT INTO settings (id, theme, font_size, background_image)
        VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            theme = excluded.theme,
            font_size = excluded.font_size,
            background_image = excluded.background_image
    `
	if _, err := s.db.Exec(query, string(settings.Theme), string(settings.FontSize), settings.BackgroundImage); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadAccounts() ([]models.Account, error) {
	query := `
        SELECT email, password_hash, name, goal, preferences, allergies,
               goal_calories, goal_protein, goal_carbs, goal_fat, created_at
        FROM accounts
        ORDER BY position
    `
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		var createdAtStr string
		p := &acc.Profile

		err := rows.Scan(
			&acc.Email, &acc.PasswordHash, &p.Name, &p.Goal, &p.Preferences, &p.Allergies,
			&p.Goals.Calories, &p.Goals.Protein, &p.Goals.Carbs, &p.Goals.Fat, &createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan account: %v", ErrCorrupt, err)
		}

		if acc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr); err != nil {
			return nil, fmt.Errorf("%w: failed to parse created_at: %v", ErrCorrupt, err)
		}

		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func (s *SQLiteStorage) SaveAccounts(accounts []models.Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}

	query := `
        INSERT INTO accounts (email, position, password_hash, name, goal, preferences, allergies,
                              goal_calories, goal_protein, goal_carbs, goal_fat, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for i, acc := range accounts {
		p := acc.Profile
		_, err = tx.Exec(query,
			acc.Email, i, acc.PasswordHash, p.Name, p.Goal, p.Preferences, p.Allergies,
			p.Goals.Calories, p.Goals.Protein, p.Goals.Carbs, p.Goals.Fat,
			acc.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to insert account %s: %w", acc.Email, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) LoadMealLogs() ([]models.MealLog, error) {
	query := `
        SELECT id, user_email, date, name, calories, protein, carbs, fat
        FROM meal_logs
        ORDER BY position
    `
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal logs: %w", err)
	}
	defer rows.Close()

	var logs []models.MealLog
	for rows.Next() {
		var m models.MealLog
		err := rows.Scan(&m.ID, &m.UserEmail, &m.Date, &m.Name,
			&m.Calories, &m.Protein, &m.Carbs, &m.Fat)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan meal log: %v", ErrCorrupt, err)
		}
		logs = append(logs, m)
	}

	return logs, rows.Err()
}

func (s *SQLiteStorage) SaveMealLogs(logs []models.MealLog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM meal_logs`); err != nil {
		return fmt.Errorf("failed to clear meal logs: %w", err)
	}

	query := `
        INSERT INTO meal_logs (id, position, user_email, date, name, calories, protein, carbs, fat)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for i, m := range logs {
		_, err = tx.Exec(query,
			m.ID, i, m.UserEmail, m.Date, m.Name, m.Calories, m.Protein, m.Carbs, m.Fat)
		if err != nil {
			return fmt.Errorf("failed to insert meal log %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}
