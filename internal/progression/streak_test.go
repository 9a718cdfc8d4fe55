package progression

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/streak-engine/internal/models"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func progressOf(day, streak, longest int) models.DomainProgress {
	return models.DomainProgress{
		UserID:        "u1",
		Domain:        models.DomainSE,
		CurrentDay:    day,
		CurrentStreak: streak,
		LongestStreak: longest,
	}
}

func TestCalculateStreak(t *testing.T) {
	tests := []struct {
		name       string
		in         StreakInput
		day        int
		streak     int
		longest    int
		transition StreakTransition
	}{
		{
			name: "first solve in domain",
			in: StreakInput{
				Progress:    progressOf(1, 0, 0),
				DayNumber:   1,
				SubmittedAt: at("2024-01-01T10:00:00Z"),
			},
			day: 2, streak: 1, longest: 1, transition: StreakStarted,
		},
		{
			name: "previous calendar day extends",
			in: StreakInput{
				Progress:    progressOf(2, 1, 1),
				DayNumber:   2,
				SubmittedAt: at("2024-01-02T09:00:00Z"),
				LastOtherAt: ptr(at("2024-01-01T10:00:00Z")),
			},
			day: 3, streak: 2, longest: 2, transition: StreakExtended,
		},
		{
			name: "same calendar day keeps",
			in: StreakInput{
				Progress:    progressOf(3, 4, 6),
				DayNumber:   3,
				SubmittedAt: at("2024-01-02T23:00:00Z"),
				LastOtherAt: ptr(at("2024-01-02T00:30:00Z")),
			},
			day: 4, streak: 4, longest: 6, transition: StreakKept,
		},
		{
			name: "gap resets and keeps longest",
			in: StreakInput{
				Progress:    progressOf(3, 2, 2),
				DayNumber:   3,
				SubmittedAt: at("2024-01-05T09:00:00Z"),
				LastOtherAt: ptr(at("2024-01-02T09:00:00Z")),
			},
			day: 4, streak: 1, longest: 2, transition: StreakReset,
		},
		{
			name: "prior submission dated later resets",
			in: StreakInput{
				Progress:    progressOf(5, 3, 3),
				DayNumber:   5,
				SubmittedAt: at("2024-01-05T09:00:00Z"),
				LastOtherAt: ptr(at("2024-01-06T09:00:00Z")),
			},
			day: 6, streak: 1, longest: 3, transition: StreakReset,
		},
		{
			name: "midnight boundary counts as next day",
			in: StreakInput{
				Progress:    progressOf(2, 1, 1),
				DayNumber:   2,
				SubmittedAt: at("2024-01-02T00:01:00Z"),
				LastOtherAt: ptr(at("2024-01-01T23:59:00Z")),
			},
			day: 3, streak: 2, longest: 2, transition: StreakExtended,
		},
		{
			name: "calendar days are taken in UTC",
			in: StreakInput{
				Progress:    progressOf(2, 1, 1),
				DayNumber:   2,
				SubmittedAt: at("2024-01-02T01:00:00+03:00"), // 2024-01-01 22:00 UTC
				LastOtherAt: ptr(at("2024-01-01T10:00:00Z")),
			},
			day: 3, streak: 1, longest: 1, transition: StreakKept,
		},
		{
			name: "solving an earlier day never moves the pointer back",
			in: StreakInput{
				Progress:    progressOf(10, 1, 4),
				DayNumber:   3,
				SubmittedAt: at("2024-01-02T09:00:00Z"),
				LastOtherAt: ptr(at("2024-01-01T09:00:00Z")),
			},
			day: 10, streak: 2, longest: 4, transition: StreakExtended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CalculateStreak(tt.in)
			assert.Equal(t, tt.day, out.CurrentDay, "current day")
			assert.Equal(t, tt.streak, out.CurrentStreak, "current streak")
			assert.Equal(t, tt.longest, out.LongestStreak, "longest streak")
			assert.Equal(t, tt.transition, out.Transition)
		})
	}
}

func TestCalculateStreakProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := at("2024-01-01T00:00:00Z")

	for i := 0; i < 2000; i++ {
		streak := rng.Intn(30)
		p := progressOf(1+rng.Intn(60), streak, streak+rng.Intn(30))
		in := StreakInput{
			Progress:    p,
			DayNumber:   1 + rng.Intn(60),
			SubmittedAt: base.Add(time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))),
		}
		if rng.Intn(4) > 0 {
			in.LastOtherAt = ptr(base.Add(time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))))
		}

		out := CalculateStreak(in)

		assert.Equal(t, out, CalculateStreak(in), "deterministic for %+v", in)
		assert.GreaterOrEqual(t, out.CurrentDay, p.CurrentDay, "pointer never regresses")
		assert.Greater(t, out.CurrentDay, in.DayNumber, "pointer moves past the solved day")
		assert.GreaterOrEqual(t, out.LongestStreak, out.CurrentStreak, "longest bounds current")
		assert.GreaterOrEqual(t, out.LongestStreak, p.LongestStreak, "longest never shrinks")
	}
}

func TestStreakOutcomeApply(t *testing.T) {
	p := progressOf(1, 0, 0)
	out := StreakOutcome{CurrentDay: 2, CurrentStreak: 1, LongestStreak: 1}

	next := out.Apply(p)
	assert.Equal(t, 2, next.CurrentDay)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 1, next.LongestStreak)
	assert.Equal(t, "u1", next.UserID)
	assert.Equal(t, 1, p.CurrentDay, "input is not modified")
}

func TestCalendarDaysBetween(t *testing.T) {
	assert.Equal(t, 0, CalendarDaysBetween(at("2024-01-01T00:00:00Z"), at("2024-01-01T23:59:59Z")))
	assert.Equal(t, 1, CalendarDaysBetween(at("2024-01-01T23:59:59Z"), at("2024-01-02T00:00:00Z")))
	assert.Equal(t, 3, CalendarDaysBetween(at("2024-01-02T09:00:00Z"), at("2024-01-05T09:00:00Z")))
	assert.Equal(t, -1, CalendarDaysBetween(at("2024-01-02T09:00:00Z"), at("2024-01-01T09:00:00Z")))
	// leap day and month rollover
	assert.Equal(t, 1, CalendarDaysBetween(at("2024-02-28T12:00:00Z"), at("2024-02-29T12:00:00Z")))
	assert.Equal(t, 1, CalendarDaysBetween(at("2024-02-29T12:00:00Z"), at("2024-03-01T00:00:00Z")))
}
