package progression

import (
	"context"

	"github.com/terra-clan/streak-engine/internal/models"
)

// Target is what a submission is graded against; exactly one field is set
type Target struct {
	Challenge *models.Challenge
	Problem   *models.Problem
}

// Grader decides the result of a submission. Unlock and streak rules
// do not depend on how the result is produced.
type Grader interface {
	Evaluate(ctx context.Context, code string, target Target) (models.Result, error)
}

// StubGrader accepts every submission
type StubGrader struct{}

// Evaluate always returns ResultPassed
func (StubGrader) Evaluate(ctx context.Context, code string, target Target) (models.Result, error) {
	return models.ResultPassed, nil
}

// GraderFunc adapts a function to Grader
type GraderFunc func(ctx context.Context, code string, target Target) (models.Result, error)

func (f GraderFunc) Evaluate(ctx context.Context, code string, target Target) (models.Result, error) {
	return f(ctx, code, target)
}
