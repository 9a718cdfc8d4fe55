package models

import "time"

// Result is the outcome recorded on a submission
type Result string

const (
	ResultPassed Result = "Passed"
	ResultFailed Result = "Failed"
)

// MaxCodeLength bounds stored code; longer input is truncated
const MaxCodeLength = 100_000

// Submission is an immutable record of a submit action.
// Exactly one of ChallengeID and ProblemID is set.
type Submission struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"-"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	ProblemID   string    `json:"problem_id,omitempty"`
	Code        string    `json:"code"`
	Result      Result    `json:"result"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsChallenge reports whether the submission targets a daily challenge
func (s *Submission) IsChallenge() bool {
	return s.ChallengeID != ""
}

// SubmitRequest represents a submission attempt
type SubmitRequest struct {
	ChallengeID string `json:"challenge_id,omitempty"`
	ProblemID   string `json:"problem_id,omitempty"`
	Code        string `json:"code"`
}

// SubmitResponse is returned after a submission is recorded
type SubmitResponse struct {
	Submission *Submission     `json:"submission"`
	Result     Result          `json:"result"`
	Progress   *DomainProgress `json:"progress,omitempty"`
	Advanced   bool            `json:"advanced"`
}

// SubmissionSummary is a submission without code, joined with its target
type SubmissionSummary struct {
	ID           string    `json:"id"`
	ChallengeID  string    `json:"challenge_id,omitempty"`
	ProblemID    string    `json:"problem_id,omitempty"`
	DayNumber    *int      `json:"day_number,omitempty"`
	ProblemTitle string    `json:"problem_title,omitempty"`
	Result       Result    `json:"result"`
	CreatedAt    time.Time `json:"created_at"`
}
