package progression

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/storage"
)

// CreateUser registers a user; the email must be unused
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if !req.SelectedDomain.IsValid() {
		return nil, fmt.Errorf("%w: select a primary domain (SE, ML or AI)", ErrValidation)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Name:           name,
		Email:          email,
		SelectedDomain: req.SelectedDomain,
		Role:           role,
		JoinedAt:       s.now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("an account with this email %w", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// ListChallenges returns challenges of a domain, or of all domains when domain is empty
func (s *Service) ListChallenges(ctx context.Context, domain string) ([]*models.Challenge, error) {
	var d models.Domain
	if domain != "" {
		var ok bool
		if d, ok = models.ParseDomain(domain); !ok {
			return nil, fmt.Errorf("%w: unknown domain %q", ErrValidation, domain)
		}
	}

	challenges, err := s.repo.ListChallenges(ctx, d)
	if err != nil {
		return nil, err
	}
	if challenges == nil {
		challenges = []*models.Challenge{}
	}
	return challenges, nil
}

// CreateChallenge adds a challenge to a free (day, domain) slot
func (s *Service) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error) {
	now := s.now().UTC()
	c := &models.Challenge{
		ID:           uuid.New().String(),
		DayNumber:    req.DayNumber,
		Domain:       req.Domain,
		Title:        strings.TrimSpace(req.Title),
		Category:     strings.TrimSpace(req.Category),
		Difficulty:   strings.TrimSpace(req.Difficulty),
		Description:  strings.TrimSpace(req.Description),
		IndustryNote: strings.TrimSpace(req.IndustryNote),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validateChallenge(c); err != nil {
		return nil, err
	}

	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return nil, challengeWriteError(err)
	}
	return c, nil
}

// UpdateChallenge applies a partial update; moving onto an occupied slot conflicts
func (s *Service) UpdateChallenge(ctx context.Context, id string, req models.UpdateChallengeRequest) (*models.Challenge, error) {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("challenge %w", ErrNotFound)
	}

	req.Apply(c)
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	c.Difficulty = strings.TrimSpace(c.Difficulty)
	c.Description = strings.TrimSpace(c.Description)
	c.IndustryNote = strings.TrimSpace(c.IndustryNote)
	c.UpdatedAt = s.now().UTC()

	if err := validateChallenge(c); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateChallenge(ctx, c); err != nil {
		return nil, challengeWriteError(err)
	}
	return c, nil
}

// DeleteChallenge removes a challenge and its submissions
func (s *Service) DeleteChallenge(ctx context.Context, id string) error {
	if err := s.repo.DeleteChallenge(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("challenge %w", ErrNotFound)
		}
		return err
	}
	return nil
}

// CreateProblem adds a practice problem
func (s *Service) CreateProblem(ctx context.Context, req models.CreateProblemRequest) (*models.Problem, error) {
	p := &models.Problem{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Domain:      req.Domain,
		Category:    strings.TrimSpace(req.Category),
		Difficulty:  strings.TrimSpace(req.Difficulty),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.now().UTC(),
	}

	if p.Title == "" || p.Category == "" || p.Difficulty == "" || p.Description == "" {
		return nil, fmt.Errorf("%w: title, category, difficulty and description are required", ErrValidation)
	}
	if !p.Domain.IsValid() {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrValidation, p.Domain)
	}

	if err := s.repo.CreateProblem(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("problem %w", ErrConflict)
		}
		return nil, err
	}
	return p, nil
}

// DeleteProblem removes a problem and its submissions
func (s *Service) DeleteProblem(ctx context.Context, id string) error {
	if err := s.repo.DeleteProblem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("problem %w", ErrNotFound)
		}
		return err
	}
	return nil
}

func validateChallenge(c *models.Challenge) error {
	if c.DayNumber < 1 || c.DayNumber > models.ProgramDays {
		return fmt.Errorf("%w: day_number must be between 1 and %d", ErrValidation, models.ProgramDays)
	}
	if !c.Domain.IsValid() {
		return fmt.Errorf("%w: unknown domain %q", ErrValidation, c.Domain)
	}
	if c.Category == "" || c.Difficulty == "" || c.Description == "" {
		return fmt.Errorf("%w: category, difficulty and description are required", ErrValidation)
	}
	return nil
}

func challengeWriteError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("a challenge for this day and domain %w", ErrConflict)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("challenge %w", ErrNotFound)
	}
	return err
}

var _ Engine = (*Service)(nil)
