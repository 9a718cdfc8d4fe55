package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/streak-engine/internal/models"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t, 0)

	assert.Equal(t, models.RoleUser, f.user.Role)
	assert.Equal(t, "ada@example.com", f.user.Email)

	_, err := f.svc.CreateUser(f.ctx, models.CreateUserRequest{
		Name: "Other Ada", Email: "  ADA@Example.com ", SelectedDomain: models.DomainML,
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.CreateUser(f.ctx, models.CreateUserRequest{
		Name: "No Domain", Email: "nd@example.com",
	})
	assert.ErrorIs(t, err, ErrValidation)

	admin, err := f.svc.CreateUser(f.ctx, models.CreateUserRequest{
		Name: "Root", Email: "root@example.com", SelectedDomain: models.DomainAI, Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.CreateChallenge(f.ctx, models.CreateChallengeRequest{
		DayNumber: 1, Domain: models.DomainSE, Category: "c", Difficulty: "d", Description: "x",
	})
	assert.ErrorIs(t, err, ErrConflict, "slot is taken")

	// the same day in another domain is free
	_, err = f.svc.CreateChallenge(f.ctx, models.CreateChallengeRequest{
		DayNumber: 1, Domain: models.DomainAI, Category: "c", Difficulty: "d", Description: "x",
	})
	assert.NoError(t, err)

	for _, day := range []int{0, 61} {
		_, err = f.svc.CreateChallenge(f.ctx, models.CreateChallengeRequest{
			DayNumber: day, Domain: models.DomainSE, Category: "c", Difficulty: "d", Description: "x",
		})
		assert.ErrorIs(t, err, ErrValidation, "day %d", day)
	}

	_, err = f.svc.CreateChallenge(f.ctx, models.CreateChallengeRequest{
		DayNumber: 2, Domain: models.DomainSE, Category: "  ", Difficulty: "d", Description: "x",
	})
	assert.ErrorIs(t, err, ErrValidation)

	all, err := f.svc.ListChallenges(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListChallenges(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateChallenge(t *testing.T) {
	f := newFixture(t, 2)

	title := "  Renamed  "
	updated, err := f.svc.UpdateChallenge(f.ctx, f.se[1].ID, models.UpdateChallengeRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 1, updated.DayNumber)

	day := 2
	_, err = f.svc.UpdateChallenge(f.ctx, f.se[1].ID, models.UpdateChallengeRequest{DayNumber: &day})
	assert.ErrorIs(t, err, ErrConflict)

	day = 7
	moved, err := f.svc.UpdateChallenge(f.ctx, f.se[1].ID, models.UpdateChallengeRequest{DayNumber: &day})
	require.NoError(t, err)
	assert.Equal(t, 7, moved.DayNumber)

	day = 99
	_, err = f.svc.UpdateChallenge(f.ctx, f.se[1].ID, models.UpdateChallengeRequest{DayNumber: &day})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateChallenge(f.ctx, "missing", models.UpdateChallengeRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteChallengeCascades(t *testing.T) {
	f := newFixture(t, 2)
	f.submit(t, 1)

	require.NoError(t, f.svc.DeleteChallenge(f.ctx, f.se[1].ID))

	subs, err := f.svc.RecentSubmissions(f.ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// progress is not rolled back by content changes
	assert.Equal(t, 2, f.progress(t, models.DomainSE).CurrentDay)

	assert.ErrorIs(t, f.svc.DeleteChallenge(f.ctx, f.se[1].ID), ErrNotFound)
}

func TestProblemAdmin(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.CreateProblem(f.ctx, models.CreateProblemRequest{
		Title: "t", Domain: "XX", Category: "c", Difficulty: "d", Description: "x",
	})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := f.svc.CreateProblem(f.ctx, models.CreateProblemRequest{
		Title: "t", Domain: models.DomainSE, Category: "c", Difficulty: "d", Description: "x",
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(f.ctx, f.user.ID, models.SubmitRequest{ProblemID: p.ID, Code: "x"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProblem(f.ctx, p.ID))
	subs, err := f.svc.RecentSubmissions(f.ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.ErrorIs(t, f.svc.DeleteProblem(f.ctx, p.ID), ErrNotFound)
}
