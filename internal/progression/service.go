package progression

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/storage"
)

// Engine defines the operations served to the HTTP layer
type Engine interface {
	Submit(ctx context.Context, userID string, req models.SubmitRequest) (*models.SubmitResponse, error)
	Board(ctx context.Context, userID, domain string) (*models.ChallengeBoard, error)
	Challenge(ctx context.Context, userID, challengeID, domain string) (*models.ChallengeDetail, error)
	Dashboard(ctx context.Context, userID, domain string) (*models.Dashboard, error)
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	RecentSubmissions(ctx context.Context, userID string, limit int) ([]*models.SubmissionSummary, error)
	Problems(ctx context.Context, userID string, filters ProblemQuery) ([]*models.ProblemView, error)
	Problem(ctx context.Context, userID, problemID string) (*models.ProblemView, error)

	// Admin
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	ListChallenges(ctx context.Context, domain string) ([]*models.Challenge, error)
	CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error)
	UpdateChallenge(ctx context.Context, id string, req models.UpdateChallengeRequest) (*models.Challenge, error)
	DeleteChallenge(ctx context.Context, id string) error
	CreateProblem(ctx context.Context, req models.CreateProblemRequest) (*models.Problem, error)
	DeleteProblem(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// Service implements Engine on top of a storage.Repository
type Service struct {
	repo   storage.Repository
	grader Grader
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithGrader replaces the default StubGrader
func WithGrader(g Grader) Option {
	return func(s *Service) {
		s.grader = g
	}
}

// WithClock sets the time source used to stamp submissions
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service
func NewService(repo storage.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		grader: StubGrader{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks storage connectivity
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Submit records a submission. A first-time submission to a challenge
// advances the domain's unlock pointer and streak in the same transaction.
func (s *Service) Submit(ctx context.Context, userID string, req models.SubmitRequest) (*models.SubmitResponse, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}

	hasChallenge, hasProblem := req.ChallengeID != "", req.ProblemID != ""
	switch {
	case hasChallenge && hasProblem:
		return nil, fmt.Errorf("%w: provide only one of challenge_id or problem_id", ErrValidation)
	case !hasChallenge && !hasProblem:
		return nil, fmt.Errorf("%w: either challenge_id or problem_id is required", ErrValidation)
	}

	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	code := truncateCode(req.Code)

	if hasProblem {
		return s.submitProblem(ctx, userID, req.ProblemID, code)
	}
	return s.submitChallenge(ctx, userID, req.ChallengeID, code)
}

func (s *Service) submitProblem(ctx context.Context, userID, problemID, code string) (*models.SubmitResponse, error) {
	problem, err := s.repo.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, fmt.Errorf("problem %w", ErrNotFound)
	}

	result, err := s.grader.Evaluate(ctx, code, Target{Problem: problem})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate submission: %w", err)
	}

	sub := s.newSubmission(userID, code, result)
	sub.ProblemID = problem.ID
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	return &models.SubmitResponse{Submission: sub, Result: result}, nil
}

func (s *Service) submitChallenge(ctx context.Context, userID, challengeID, code string) (*models.SubmitResponse, error) {
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, fmt.Errorf("challenge %w", ErrNotFound)
	}

	var resp *models.SubmitResponse
	var transition StreakTransition

	err = s.repo.InTx(ctx, func(tx storage.Tx) error {
		progress, err := tx.LockProgress(ctx, userID, challenge.Domain)
		if err != nil {
			return err
		}

		unlocked, err := CheckUnlock(challenge, challenge.Domain, progress)
		if err != nil {
			return err
		}
		if !unlocked {
			return fmt.Errorf("%w: day %d is beyond current day %d", ErrLocked, challenge.DayNumber, progress.CurrentDay)
		}

		result, err := s.grader.Evaluate(ctx, code, Target{Challenge: challenge})
		if err != nil {
			return fmt.Errorf("failed to evaluate submission: %w", err)
		}

		sub := s.newSubmission(userID, code, result)
		sub.ChallengeID = challenge.ID
		if err := tx.CreateSubmission(ctx, sub); err != nil {
			return err
		}
		resp = &models.SubmitResponse{Submission: sub, Result: result, Progress: progress}

		first, err := tx.FirstChallengeSubmission(ctx, userID, challenge.ID)
		if err != nil {
			return err
		}
		if first == nil || first.ID != sub.ID {
			// resubmission: progress stays as it was
			return nil
		}

		last, err := tx.LastDomainSubmission(ctx, userID, challenge.Domain, sub.ID)
		if err != nil {
			return err
		}
		var lastAt *time.Time
		if last != nil {
			lastAt = &last.CreatedAt
		}

		outcome := CalculateStreak(StreakInput{
			Progress:    *progress,
			DayNumber:   challenge.DayNumber,
			SubmittedAt: sub.CreatedAt,
			LastOtherAt: lastAt,
		})
		next := outcome.Apply(*progress)
		next.UpdatedAt = sub.CreatedAt

		if err := tx.UpdateProgress(ctx, next); err != nil {
			return err
		}

		resp.Progress = next
		resp.Advanced = true
		transition = outcome.Transition
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Advanced {
		slog.Info("challenge solved",
			"user_id", userID,
			"domain", challenge.Domain,
			"challenge_id", challenge.ID,
			"day", challenge.DayNumber,
			"current_day", resp.Progress.CurrentDay,
			"current_streak", resp.Progress.CurrentStreak,
			"streak", transition,
		)
	}

	return resp, nil
}

func (s *Service) newSubmission(userID, code string, result models.Result) *models.Submission {
	return &models.Submission{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
}

func (s *Service) requireUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return user, nil
}

// truncateCode cuts code to MaxCodeLength characters without splitting a rune
func truncateCode(code string) string {
	if utf8.RuneCountInString(code) <= models.MaxCodeLength {
		return code
	}
	n := 0
	for i := range code {
		if n == models.MaxCodeLength {
			return code[:i]
		}
		n++
	}
	return code
}
