package progression

import (
	"time"

	"github.com/terra-clan/streak-engine/internal/models"
)

// StreakTransition names how a first-time solve affected the streak
type StreakTransition string

const (
	StreakStarted  StreakTransition = "started"
	StreakExtended StreakTransition = "extended"
	StreakKept     StreakTransition = "kept"
	StreakReset    StreakTransition = "reset"
)

// StreakInput holds everything CalculateStreak reads
type StreakInput struct {
	Progress    models.DomainProgress
	DayNumber   int
	SubmittedAt time.Time
	// LastOtherAt is the time of the newest other challenge submission
	// in the same domain, nil when there is none.
	LastOtherAt *time.Time
}

// StreakOutcome is the new progress triple to persist
type StreakOutcome struct {
	CurrentDay    int
	CurrentStreak int
	LongestStreak int
	Transition    StreakTransition
}

// CalculateStreak derives the progress after a first-time solve.
// It is a pure function of its input.
func CalculateStreak(in StreakInput) StreakOutcome {
	p := in.Progress

	currentDay := p.CurrentDay
	if next := in.DayNumber + 1; next > currentDay {
		currentDay = next
	}

	streak, transition := 1, StreakStarted
	if in.LastOtherAt != nil {
		switch CalendarDaysBetween(*in.LastOtherAt, in.SubmittedAt) {
		case 1:
			streak, transition = p.CurrentStreak+1, StreakExtended
		case 0:
			streak, transition = p.CurrentStreak, StreakKept
		default:
			// gaps of two or more days, and prior submissions dated after
			// this one, both restart the count
			streak, transition = 1, StreakReset
		}
	}

	longest := p.LongestStreak
	if streak > longest {
		longest = streak
	}

	return StreakOutcome{
		CurrentDay:    currentDay,
		CurrentStreak: streak,
		LongestStreak: longest,
		Transition:    transition,
	}
}

// Apply returns a copy of p carrying the outcome
func (o StreakOutcome) Apply(p models.DomainProgress) *models.DomainProgress {
	p.CurrentDay = o.CurrentDay
	p.CurrentStreak = o.CurrentStreak
	p.LongestStreak = o.LongestStreak
	return &p
}

// CalendarDaysBetween counts UTC calendar days from from to to.
// It is negative when to falls on an earlier date.
func CalendarDaysBetween(from, to time.Time) int {
	return int(utcDate(to).Sub(utcDate(from)) / (24 * time.Hour))
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
