package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/progression"
)

// ContentWriter creates catalog entries; progression.Service satisfies it
type ContentWriter interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error)
	CreateProblem(ctx context.Context, req models.CreateProblemRequest) (*models.Problem, error)
}

// ProblemLister lists stored problems; storage.Repository satisfies it
type ProblemLister interface {
	ListProblems(ctx context.Context, filters models.ProblemFilters) ([]*models.Problem, error)
}

// SeedResult summarizes a Seed run
type SeedResult struct {
	Users      []*models.User
	Challenges int
	Problems   int
	Skipped    int
}

// Seed writes the loaded catalog. Existing emails, occupied (day, domain)
// slots and problems already stored under the same title are skipped.
func Seed(ctx context.Context, l *Loader, w ContentWriter, problems ProblemLister) (*SeedResult, error) {
	res := &SeedResult{}

	for _, u := range l.Users() {
		user, err := w.CreateUser(ctx, *u)
		if err != nil {
			if errors.Is(err, progression.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		res.Users = append(res.Users, user)
	}

	for _, c := range l.Challenges() {
		_, err := w.CreateChallenge(ctx, models.CreateChallengeRequest{
			DayNumber:    c.DayNumber,
			Domain:       c.Domain,
			Title:        c.Title,
			Category:     c.Category,
			Difficulty:   c.Difficulty,
			Description:  c.Description,
			IndustryNote: c.IndustryNote,
		})
		if err != nil {
			if errors.Is(err, progression.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("failed to create challenge %s day %d: %w", c.Domain, c.DayNumber, err)
		}
		res.Challenges++
	}

	stored, err := problems.ListProblems(ctx, models.ProblemFilters{})
	if err != nil {
		return res, fmt.Errorf("failed to list problems: %w", err)
	}
	existing := make(map[string]bool, len(stored))
	for _, p := range stored {
		existing[problemKey(p.Domain, p.Title)] = true
	}

	for _, p := range l.Problems() {
		if existing[problemKey(p.Domain, p.Title)] {
			res.Skipped++
			continue
		}
		_, err := w.CreateProblem(ctx, models.CreateProblemRequest{
			Title:       p.Title,
			Domain:      p.Domain,
			Category:    p.Category,
			Difficulty:  p.Difficulty,
			Description: p.Description,
		})
		if err != nil {
			return res, fmt.Errorf("failed to create problem %q: %w", p.Title, err)
		}
		res.Problems++
	}

	slog.Info("catalog seeded",
		"users", len(res.Users),
		"challenges", res.Challenges,
		"problems", res.Problems,
		"skipped", res.Skipped,
	)
	return res, nil
}
