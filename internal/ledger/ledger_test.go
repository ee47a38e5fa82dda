package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutripal/internal/models"
)

type recordingPersister struct {
	saved [][]models.MealLog
	err   error
}

func (p *recordingPersister) SaveMealLogs(logs []models.MealLog) error {
	p.saved = append(p.saved, logs)
	return p.err
}

// gatedPersister holds the first save until release is closed.
type gatedPersister struct {
	mu      sync.Mutex
	calls   int
	last    []models.MealLog
	entered chan struct{}
	release chan struct{}
}

func newGatedPersister() *gatedPersister {
	return &gatedPersister{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *gatedPersister) SaveMealLogs(logs []models.MealLog) error {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()
	if first {
		close(p.entered)
		<-p.release
	}
	p.mu.Lock()
	p.last = logs
	p.mu.Unlock()
	return nil
}

func (p *gatedPersister) lastSaved() []models.MealLog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func meal(id, email, date string, calories int) models.MealLog {
	return models.MealLog{ID: id, UserEmail: email, Date: date, Name: id, Calories: calories}
}

func TestAppendPrependsAndPersists(t *testing.T) {
	p := &recordingPersister{}
	l := New(nil, p)

	l.Append(meal("first", "a@x.com", "2026-10-19", 100))
	l.Append(meal("second", "a@x.com", "2026-10-19", 100))

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].ID)
	assert.Equal(t, "first", all[1].ID)
	require.Len(t, p.saved, 2)
	assert.Equal(t, all, p.saved[1])
}

func TestAppendAcceptsDuplicatesAndOddValues(t *testing.T) {
	l := New(nil, nil)
	odd := models.MealLog{ID: "m", UserEmail: "a@x.com", Date: "2026-10-19", Name: "Apple", Calories: -20, Protein: 9999}

	l.Append(odd)
	l.Append(odd)

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, odd, all[0])
	assert.Equal(t, odd, all[1])
}

func TestAppendKeepsInMemoryStateWhenPersistFails(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	l := New(nil, p)

	l.Append(meal("m1", "a@x.com", "2026-10-19", 50))

	assert.Equal(t, 1, l.Len())
}

func TestDeleteForUserRemovesOnlyThatUser(t *testing.T) {
	p := &recordingPersister{}
	l := New([]models.MealLog{
		meal("m5", "a@x.com", "2026-10-19", 1),
		meal("m4", "b@x.com", "2026-10-19", 1),
		meal("m3", "a@x.com", "2026-10-18", 1),
		meal("m2", "b@x.com", "2026-10-17", 1),
		meal("m1", "a@x.com", "2026-10-16", 1),
	}, p)

	removed := l.DeleteForUser("a@x.com")

	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"m4", "m2"}, ids(l.All()))
	assert.Empty(t, l.ForUser("a@x.com"))
	assert.Len(t, p.saved, 1)

	assert.Equal(t, 0, l.DeleteForUser("nobody@x.com"))
	assert.Len(t, p.saved, 1)
}

func TestForUserAndForDate(t *testing.T) {
	logs := []models.MealLog{
		meal("m4", "a@x.com", "2026-10-19", 1),
		meal("m3", "b@x.com", "2026-10-19", 1),
		meal("m2", "a@x.com", "2026-10-18", 1),
		meal("m1", "a@x.com", "2026-10-19", 1),
	}

	mine := ForUser(logs, "a@x.com")
	assert.Equal(t, []string{"m4", "m2", "m1"}, ids(mine))

	assert.Equal(t, []string{"m4", "m1"}, ids(ForDate(mine, "2026-10-19")))
	assert.Empty(t, ForDate(mine, "2026-10-20"))
	assert.Empty(t, ForDate(mine, "2026-10-1"))
	assert.Equal(t, mine, ForDate(mine, ""))
}

func TestHasLogs(t *testing.T) {
	l := New([]models.MealLog{meal("m1", "a@x.com", "2026-10-19", 1)}, nil)
	assert.True(t, l.HasLogs("a@x.com"))
	assert.False(t, l.HasLogs("b@x.com"))
}

func ids(logs []models.MealLog) []string {
	out := make([]string, 0, len(logs))
	for _, m := range logs {
		out = append(out, m.ID)
	}
	return out
}

func TestAppendSavesInMutationOrder(t *testing.T) {
	p := newGatedPersister()
	l := New(nil, p)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Append(meal("a", "a@x.com", "2026-10-19", 100))
	}()
	<-p.entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		l.Append(meal("b", "a@x.com", "2026-10-19", 200))
	}()
	assert.Never(t, func() bool {
		select {
		case <-secondDone:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(p.release)
	wg.Wait()
	<-secondDone

	require.Len(t, l.All(), 2)
	assert.Equal(t, l.All(), p.lastSaved())
}

func TestConcurrentAppendsPersistFinalHistory(t *testing.T) {
	p := &recordingPersister{}
	l := New(nil, p)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(meal(fmt.Sprintf("m%d", i), "a@x.com", "2026-10-19", i))
		}()
	}
	wg.Wait()

	require.Len(t, p.saved, 50)
	assert.Equal(t, l.All(), p.saved[len(p.saved)-1])
}
