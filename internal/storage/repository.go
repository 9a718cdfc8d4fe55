package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/streak-engine/internal/models"
)

// ErrDuplicate is returned when a write violates a unique key,
// e.g. a second challenge for an occupied (day, domain) slot.
var ErrDuplicate = errors.New("duplicate key")

// Repository defines the interface for platform persistence.
// Lookups of a single row return (nil, nil) when the row does not exist.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Challenges
	CreateChallenge(ctx context.Context, c *models.Challenge) error
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	UpdateChallenge(ctx context.Context, c *models.Challenge) error
	DeleteChallenge(ctx context.Context, id string) error
	ListChallenges(ctx context.Context, domain models.Domain) ([]*models.Challenge, error)

	// Problems
	CreateProblem(ctx context.Context, p *models.Problem) error
	GetProblem(ctx context.Context, id string) (*models.Problem, error)
	DeleteProblem(ctx context.Context, id string) error
	ListProblems(ctx context.Context, filters models.ProblemFilters) ([]*models.Problem, error)

	// Submissions
	CreateSubmission(ctx context.Context, s *models.Submission) error
	ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*models.SubmissionSummary, error)
	SubmissionTimesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	SolvedChallenges(ctx context.Context, userID string, domain models.Domain) ([]*models.Challenge, error)
	SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error)
	HasChallengeSubmission(ctx context.Context, userID, challengeID string) (bool, error)
	HasProblemSubmission(ctx context.Context, userID, problemID string) (bool, error)

	// Progress
	GetOrCreateProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error)

	// InTx runs fn in a single transaction, committing when fn returns nil
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Tx is the set of operations used by the progression read-modify-write.
type Tx interface {
	// LockProgress returns the (userID, domain) record, creating it if needed,
	// and holds it locked until the transaction ends.
	LockProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error)
	UpdateProgress(ctx context.Context, p *models.DomainProgress) error
	CreateSubmission(ctx context.Context, s *models.Submission) error
	// FirstChallengeSubmission returns the earliest recorded submission of userID for challengeID
	FirstChallengeSubmission(ctx context.Context, userID, challengeID string) (*models.Submission, error)
	// LastDomainSubmission returns the newest challenge submission of userID in domain,
	// ignoring excludeID
	LastDomainSubmission(ctx context.Context, userID string, domain models.Domain, excludeID string) (*models.Submission, error)
}
