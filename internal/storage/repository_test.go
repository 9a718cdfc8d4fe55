package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/streak-engine/internal/models"
)

var errAbort = errors.New("abort")

// testRepositoryContract exercises behaviour every Repository must share.
// newRepo must return an empty repository.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("challenges", func(t *testing.T) { testChallenges(t, newRepo(t)) })
	t.Run("progress", func(t *testing.T) { testProgress(t, newRepo(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newRepo(t)) })
	t.Run("submission queries", func(t *testing.T) { testSubmissionQueries(t, newRepo(t)) })
	t.Run("cascades", func(t *testing.T) { testCascades(t, newRepo(t)) })
}

var baseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newUser(t *testing.T, repo Repository, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:             uuid.New().String(),
		Name:           "Ada",
		Email:          email,
		SelectedDomain: models.DomainSE,
		Role:           models.RoleUser,
		JoinedAt:       baseTime,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func newChallenge(t *testing.T, repo Repository, domain models.Domain, day int) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		ID:          uuid.New().String(),
		DayNumber:   day,
		Domain:      domain,
		Title:       "challenge",
		Category:    "Arrays",
		Difficulty:  "Easy",
		Description: "solve it",
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	require.NoError(t, repo.CreateChallenge(context.Background(), c))
	return c
}

func newProblem(t *testing.T, repo Repository, domain models.Domain, title string) *models.Problem {
	t.Helper()
	p := &models.Problem{
		ID:          uuid.New().String(),
		Title:       title,
		Domain:      domain,
		Category:    "Lists",
		Difficulty:  "Easy",
		Description: "practice",
		CreatedAt:   baseTime,
	}
	require.NoError(t, repo.CreateProblem(context.Background(), p))
	return p
}

func newSubmission(userID string, at time.Time) *models.Submission {
	return &models.Submission{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      "code",
		Result:    models.ResultPassed,
		CreatedAt: at,
	}
}

func submitChallenge(t *testing.T, repo Repository, userID, challengeID string, at time.Time) *models.Submission {
	t.Helper()
	s := newSubmission(userID, at)
	s.ChallengeID = challengeID
	require.NoError(t, repo.CreateSubmission(context.Background(), s))
	return s
}

func testUsers(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser(t, repo, "ada@example.com")

	got, err := repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, models.DomainSE, got.SelectedDomain)
	assert.True(t, baseTime.Equal(got.JoinedAt))

	dup := *u
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, repo.CreateUser(ctx, &dup), ErrDuplicate)

	missing, err := repo.GetUser(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetUser(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testChallenges(t *testing.T, repo Repository) {
	ctx := context.Background()
	day2 := newChallenge(t, repo, models.DomainSE, 2)
	day1 := newChallenge(t, repo, models.DomainSE, 1)
	newChallenge(t, repo, models.DomainML, 1)

	taken := *day1
	taken.ID = uuid.New().String()
	assert.ErrorIs(t, repo.CreateChallenge(ctx, &taken), ErrDuplicate)

	list, err := repo.ListChallenges(ctx, models.DomainSE)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, day1.ID, list[0].ID)
	assert.Equal(t, day2.ID, list[1].ID)

	all, err := repo.ListChallenges(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	moved := *day2
	moved.DayNumber = 1
	assert.ErrorIs(t, repo.UpdateChallenge(ctx, &moved), ErrDuplicate)

	moved.DayNumber = 5
	moved.Title = "renamed"
	require.NoError(t, repo.UpdateChallenge(ctx, &moved))

	got, err := repo.GetChallenge(ctx, day2.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.DayNumber)
	assert.Equal(t, "renamed", got.Title)

	// the vacated slot can be reused
	newChallenge(t, repo, models.DomainSE, 2)

	ghost := moved
	ghost.ID = uuid.New().String()
	ghost.DayNumber = 30
	assert.ErrorIs(t, repo.UpdateChallenge(ctx, &ghost), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteChallenge(ctx, uuid.New().String()), ErrNotFound)

	missing, err := repo.GetChallenge(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testProgress(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser(t, repo, "ada@example.com")

	p, err := repo.GetOrCreateProgress(ctx, u.ID, models.DomainML)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentDay)
	assert.Zero(t, p.CurrentStreak)
	assert.Zero(t, p.LongestStreak)
	assert.Equal(t, models.DomainML, p.Domain)

	again, err := repo.GetOrCreateProgress(ctx, u.ID, models.DomainML)
	require.NoError(t, err)
	assert.Equal(t, p.CurrentDay, again.CurrentDay)
}

func testTransactions(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser(t, repo, "ada@example.com")
	c := newChallenge(t, repo, models.DomainSE, 1)

	// a failing transaction leaves no trace
	err := repo.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockProgress(ctx, u.ID, models.DomainSE)
		if err != nil {
			return err
		}
		s := newSubmission(u.ID, baseTime)
		s.ChallengeID = c.ID
		if err := tx.CreateSubmission(ctx, s); err != nil {
			return err
		}
		p.CurrentDay = 9
		p.UpdatedAt = baseTime
		if err := tx.UpdateProgress(ctx, p); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	has, err := repo.HasChallengeSubmission(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, has)

	p, err := repo.GetOrCreateProgress(ctx, u.ID, models.DomainSE)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentDay)

	// a committed transaction sees its own writes
	var sub *models.Submission
	err = repo.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockProgress(ctx, u.ID, models.DomainSE)
		if err != nil {
			return err
		}
		sub = newSubmission(u.ID, baseTime)
		sub.ChallengeID = c.ID
		if err := tx.CreateSubmission(ctx, sub); err != nil {
			return err
		}

		first, err := tx.FirstChallengeSubmission(ctx, u.ID, c.ID)
		if err != nil {
			return err
		}
		if first == nil || first.ID != sub.ID {
			return errors.New("pending submission not visible")
		}

		p.CurrentDay, p.CurrentStreak, p.LongestStreak = 2, 1, 1
		p.UpdatedAt = baseTime
		return tx.UpdateProgress(ctx, p)
	})
	require.NoError(t, err)
	assert.Positive(t, sub.Seq)

	p, err = repo.GetOrCreateProgress(ctx, u.ID, models.DomainSE)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentDay)
	assert.Equal(t, 1, p.LongestStreak)

	// a later submission does not replace the first one on record
	err = repo.InTx(ctx, func(tx Tx) error {
		later := newSubmission(u.ID, baseTime.Add(-time.Hour))
		later.ChallengeID = c.ID
		if err := tx.CreateSubmission(ctx, later); err != nil {
			return err
		}
		first, err := tx.FirstChallengeSubmission(ctx, u.ID, c.ID)
		if err != nil {
			return err
		}
		if first == nil || first.ID != sub.ID {
			return errors.New("first submission changed")
		}
		return nil
	})
	require.NoError(t, err)
}

func testSubmissionQueries(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser(t, repo, "ada@example.com")
	other := newUser(t, repo, "bob@example.com")
	se1 := newChallenge(t, repo, models.DomainSE, 1)
	se2 := newChallenge(t, repo, models.DomainSE, 2)
	ml1 := newChallenge(t, repo, models.DomainML, 1)
	prob := newProblem(t, repo, models.DomainSE, "Reverse")

	s1 := submitChallenge(t, repo, u.ID, se1.ID, baseTime)
	submitChallenge(t, repo, u.ID, se1.ID, baseTime.Add(time.Hour))
	s3 := submitChallenge(t, repo, u.ID, ml1.ID, baseTime.Add(48*time.Hour))
	submitChallenge(t, repo, other.ID, se2.ID, baseTime.Add(72*time.Hour))

	ps := newSubmission(u.ID, baseTime.Add(2*time.Hour))
	ps.ProblemID = prob.ID
	require.NoError(t, repo.CreateSubmission(ctx, ps))

	recent, err := repo.ListRecentSubmissions(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, s3.ID, recent[0].ID)
	require.NotNil(t, recent[0].DayNumber)
	assert.Equal(t, 1, *recent[0].DayNumber)
	assert.Equal(t, "Reverse", recent[1].ProblemTitle)
	assert.Nil(t, recent[1].DayNumber)
	assert.Equal(t, s1.ID, recent[3].ID)

	limited, err := repo.ListRecentSubmissions(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	times, err := repo.SubmissionTimesSince(ctx, u.ID, baseTime.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, times, 2)

	solved, err := repo.SolvedChallenges(ctx, u.ID, models.DomainSE)
	require.NoError(t, err)
	require.Len(t, solved, 1)
	assert.Equal(t, se1.ID, solved[0].ID)

	solvedProblems, err := repo.SolvedProblemIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, solvedProblems[prob.ID])

	has, err := repo.HasProblemSubmission(ctx, other.ID, prob.ID)
	require.NoError(t, err)
	assert.False(t, has)

	problems, err := repo.ListProblems(ctx, models.ProblemFilters{Domain: models.DomainSE, Difficulty: "Easy"})
	require.NoError(t, err)
	assert.Len(t, problems, 1)

	problems, err = repo.ListProblems(ctx, models.ProblemFilters{Domain: models.DomainML})
	require.NoError(t, err)
	assert.Empty(t, problems)

	err = repo.InTx(ctx, func(tx Tx) error {
		last, err := tx.LastDomainSubmission(ctx, u.ID, models.DomainSE, "")
		if err != nil {
			return err
		}
		require.NotNil(t, last)
		assert.Equal(t, se1.ID, last.ChallengeID)
		assert.True(t, baseTime.Add(time.Hour).Equal(last.CreatedAt), "newest SE submission")

		last, err = tx.LastDomainSubmission(ctx, u.ID, models.DomainML, s3.ID)
		if err != nil {
			return err
		}
		assert.Nil(t, last, "excluded submission is skipped")

		last, err = tx.LastDomainSubmission(ctx, u.ID, models.DomainAI, "")
		if err != nil {
			return err
		}
		assert.Nil(t, last)
		return nil
	})
	require.NoError(t, err)
}

func testCascades(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser(t, repo, "ada@example.com")
	c := newChallenge(t, repo, models.DomainSE, 1)
	p := newProblem(t, repo, models.DomainSE, "Reverse")

	submitChallenge(t, repo, u.ID, c.ID, baseTime)
	ps := newSubmission(u.ID, baseTime)
	ps.ProblemID = p.ID
	require.NoError(t, repo.CreateSubmission(ctx, ps))

	require.NoError(t, repo.DeleteChallenge(ctx, c.ID))
	require.NoError(t, repo.DeleteProblem(ctx, p.ID))

	recent, err := repo.ListRecentSubmissions(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	assert.ErrorIs(t, repo.DeleteProblem(ctx, p.ID), ErrNotFound)
}
