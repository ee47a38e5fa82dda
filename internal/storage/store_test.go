package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.etcd.io/bbolt"

	"nutripal/internal/models"
)

type StoreTestSuite struct {
	suite.Suite
	backend string
	store   Store
}

func (s *StoreTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "nutripal.db")
	store, err := Open(s.backend, path)
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreTestSuite) TestEmptyStoreReturnsDefaults() {
	settings, err := s.store.LoadSettings()
	s.Require().NoError(err)
	s.Equal(models.DefaultSettings(), settings)

	accounts, err := s.store.LoadAccounts()
	s.Require().NoError(err)
	s.Empty(accounts)

	logs, err := s.store.LoadMealLogs()
	s.Require().NoError(err)
	s.Empty(logs)
}

func (s *StoreTestSuite) TestSettingsRoundTrip() {
	want := models.Settings{Theme: models.ThemeForest, FontSize: models.FontSizeLarge, BackgroundImage: "https://example.com/bg.jpg"}
	s.Require().NoError(s.store.SaveSettings(want))

	got, err := s.store.LoadSettings()
	s.Require().NoError(err)
	s.Equal(want, got)

	want.Theme = models.ThemeOcean
	s.Require().NoError(s.store.SaveSettings(want))
	got, err = s.store.LoadSettings()
	s.Require().NoError(err)
	s.Equal(models.ThemeOcean, got.Theme)
}

func (s *StoreTestSuite) TestAccountsRewrittenInFull() {
	created := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	accounts := []models.Account{
		{Email: "b@x.com", PasswordHash: "hash-b", Profile: models.NewProfile("Bea"), CreatedAt: created},
		{Email: "a@x.com", PasswordHash: "hash-a", Profile: models.UserProfile{
			Name: "Al", Goal: "Lose weight", Allergies: "peanuts",
			Goals: models.Goals{Calories: "1800", Protein: "100"},
		}, CreatedAt: created},
	}
	s.Require().NoError(s.store.SaveAccounts(accounts))

	got, err := s.store.LoadAccounts()
	s.Require().NoError(err)
	s.Equal(accounts, got)

	s.Require().NoError(s.store.SaveAccounts(accounts[1:]))
	got, err = s.store.LoadAccounts()
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("a@x.com", got[0].Email)
}

func (s *StoreTestSuite) TestMealLogsKeepOrder() {
	logs := []models.MealLog{
		{ID: "meal_3", UserEmail: "a@x.com", Date: "2026-10-19", Name: "Banana", Calories: 105, Protein: 1, Carbs: 27},
		{ID: "meal_2", UserEmail: "b@x.com", Date: "2026-10-18", Name: "Pizza", Calories: 800, Protein: 30, Carbs: 90, Fat: 35},
		{ID: "meal_1", UserEmail: "a@x.com", Date: "2026-10-17", Name: "Oops", Calories: -5},
	}
	s.Require().NoError(s.store.SaveMealLogs(logs))

	got, err := s.store.LoadMealLogs()
	s.Require().NoError(err)
	s.Equal(logs, got)
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{backend: BackendSQLite})
}

func TestBoltStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{backend: BackendBolt})
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
}

func TestBoltCorruptBlobIsErrCorrupt(t *testing.T) {
	store, err := NewBoltStorage(filepath.Join(t.TempDir(), "nutripal.bolt"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(blobKey, []byte("{not json"))
	}))

	settings, err := store.LoadSettings()
	require.ErrorIs(t, err, ErrCorrupt)
	require.Equal(t, models.DefaultSettings(), settings)
}

func TestSQLiteCorruptRowIsErrCorrupt(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nutripal.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`INSERT INTO meal_logs (id, position, user_email, date, name, calories, protein, carbs, fat)
        VALUES ('m', 0, 'a@x.com', '2026-10-19', 'Banana', 'lots', 1, 27, 0)`)
	require.NoError(t, err)

	_, err = store.LoadMealLogs()
	require.ErrorIs(t, err, ErrCorrupt)
}
