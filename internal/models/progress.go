package models

import "time"

// DomainProgress is the unlock pointer and streak counters of one user in one domain.
// CurrentDay never decreases and LongestStreak >= CurrentStreak.
type DomainProgress struct {
	UserID        string    `json:"user_id"`
	Domain        Domain    `json:"domain"`
	CurrentDay    int       `json:"current_day"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewDomainProgress returns the record created on first access
func NewDomainProgress(userID string, domain Domain) *DomainProgress {
	return &DomainProgress{
		UserID:     userID,
		Domain:     domain,
		CurrentDay: 1,
		UpdatedAt:  time.Now().UTC(),
	}
}

// ChallengeState is the derived per-challenge state
type ChallengeState string

const (
	StateLocked   ChallengeState = "locked"
	StateUnlocked ChallengeState = "unlocked"
	StateSolved   ChallengeState = "solved"
)

// DaySlot is one day of a domain's program as seen by a user
type DaySlot struct {
	DayNumber  int            `json:"day_number"`
	Configured bool           `json:"configured"`
	Unlocked   bool           `json:"unlocked"`
	Solved     bool           `json:"solved"`
	State      ChallengeState `json:"state"`
	Challenge  *Challenge     `json:"challenge,omitempty"`
}

// ChallengeBoard is the full program of a domain for one user
type ChallengeBoard struct {
	Domain        Domain     `json:"domain"`
	CurrentDay    int        `json:"current_day"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	Days          []*DaySlot `json:"days"`
}

// ChallengeDetail is a single challenge annotated for the caller
type ChallengeDetail struct {
	*Challenge
	Unlocked bool           `json:"unlocked"`
	Solved   bool           `json:"solved"`
	State    ChallengeState `json:"state"`
}

// NamedCount is one bucket of a breakdown
type NamedCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DailyCount is one day of the weekly submission histogram
type DailyCount struct {
	Day         string `json:"day"`
	Submissions int    `json:"submissions"`
}

// Dashboard is the aggregated read-only view of a user's progress in a domain
type Dashboard struct {
	Domain               Domain               `json:"domain"`
	CurrentDay           int                  `json:"current_day"`
	CurrentStreak        int                  `json:"current_streak"`
	LongestStreak        int                  `json:"longest_streak"`
	TotalProblemsSolved  int                  `json:"total_problems_solved"`
	CompletionPercentage int                  `json:"completion_percentage"`
	CategoryProgress     []NamedCount         `json:"category_progress"`
	DifficultyBreakdown  []NamedCount         `json:"difficulty_breakdown"`
	WeeklySubmissions    []DailyCount         `json:"weekly_submissions"`
	RecentActivity       []*SubmissionSummary `json:"recent_activity"`
}
