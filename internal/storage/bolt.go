// internal/storage/bolt.go
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"nutripal/internal/models"
)

var (
	settingsBucket = []byte("Settings")
	accountsBucket = []byte("Accounts")
	mealLogsBucket = []byte("MealLogs")

	blobKey = []byte("blob")
)

// BoltStorage keeps each blob as one JSON value in its own bucket.
type BoltStorage struct {
	db *bbolt.DB
}

func NewBoltStorage(dbPath string) (*BoltStorage, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{settingsBucket, accountsBucket, mealLogsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// load decodes the blob in bucket into v. It reports false when no blob has
// been written yet.
func (s *BoltStorage) load(bucket []byte, v any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(blobKey)
		if data == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return found, fmt.Errorf("failed to load %s: %w", bucket, err)
	}
	return found, nil
}

func (s *BoltStorage) save(bucket []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", bucket, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(blobKey, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", bucket, err)
	}
	return nil
}

func (s *BoltStorage) LoadSettings() (models.Settings, error) {
	var settings models.Settings
	found, err := s.load(settingsBucket, &settings)
	if err != nil || !found {
		return models.DefaultSettings(), err
	}
	return settings, nil
}

func (s *BoltStorage) SaveSettings(settings models.Settings) error {
	return s.save(settingsBucket, settings)
}

func (s *BoltStorage) LoadAccounts() ([]models.Account, error) {
	var accounts []models.Account
	if _, err := s.load(accountsBucket, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *BoltStorage) SaveAccounts(accounts []models.Account) error {
	return s.save(accountsBucket, accounts)
}

func (s *BoltStorage) LoadMealLogs() ([]models.MealLog, error) {
	var logs []models.MealLog
	if _, err := s.load(mealLogsBucket, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *BoltStorage) SaveMealLogs(logs []models.MealLog) error {
	return s.save(mealLogsBucket, logs)
}
