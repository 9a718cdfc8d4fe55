package progression

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at(s)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx   context.Context
	repo  *storage.MemoryRepository
	clock *fakeClock
	svc   *Service
	user  *models.User
	// se holds the SE challenges by day
	se map[int]*models.Challenge
}

// newFixture seeds one SE learner and SE challenges for days 1..days
func newFixture(t *testing.T, days int, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		repo:  storage.NewMemoryRepository(),
		clock: &fakeClock{now: at("2024-01-01T10:00:00Z")},
		se:    make(map[int]*models.Challenge),
	}
	f.svc = NewService(f.repo, append([]Option{WithClock(f.clock.Now)}, opts...)...)

	user, err := f.svc.CreateUser(f.ctx, models.CreateUserRequest{
		Name:           "Ada",
		Email:          "ada@example.com",
		SelectedDomain: models.DomainSE,
	})
	require.NoError(t, err)
	f.user = user

	for day := 1; day <= days; day++ {
		f.se[day] = f.addChallenge(t, models.DomainSE, day)
	}
	return f
}

func (f *fixture) addChallenge(t *testing.T, domain models.Domain, day int) *models.Challenge {
	t.Helper()

	category, difficulty := "Arrays", "Easy"
	if day%2 == 0 {
		category, difficulty = "Graphs", "Medium"
	}

	c, err := f.svc.CreateChallenge(f.ctx, models.CreateChallengeRequest{
		DayNumber:   day,
		Domain:      domain,
		Title:       fmt.Sprintf("%s day %d", domain, day),
		Category:    category,
		Difficulty:  difficulty,
		Description: "solve it",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) submit(t *testing.T, day int) *models.SubmitResponse {
	t.Helper()

	resp, err := f.svc.Submit(f.ctx, f.user.ID, models.SubmitRequest{
		ChallengeID: f.se[day].ID,
		Code:        fmt.Sprintf("solution for day %d", day),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) progress(t *testing.T, domain models.Domain) models.DomainProgress {
	t.Helper()

	p, err := f.repo.GetOrCreateProgress(f.ctx, f.user.ID, domain)
	require.NoError(t, err)
	return *p
}

// setCurrentDay moves the unlock pointer directly
func (f *fixture) setCurrentDay(t *testing.T, domain models.Domain, day int) {
	t.Helper()

	err := f.repo.InTx(f.ctx, func(tx storage.Tx) error {
		p, err := tx.LockProgress(f.ctx, f.user.ID, domain)
		if err != nil {
			return err
		}
		p.CurrentDay = day
		return tx.UpdateProgress(f.ctx, p)
	})
	require.NoError(t, err)
}

type triple struct{ day, streak, longest int }

func tripleOf(p models.DomainProgress) triple {
	return triple{p.CurrentDay, p.CurrentStreak, p.LongestStreak}
}
