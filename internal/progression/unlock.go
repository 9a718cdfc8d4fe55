package progression

import (
	"fmt"

	"github.com/terra-clan/streak-engine/internal/models"
)

// CheckUnlock reports whether challenge is accessible with the given progress
// when browsing domain. A challenge of another domain is reported as not found
// rather than locked so callers cannot probe other tracks.
func CheckUnlock(challenge *models.Challenge, domain models.Domain, progress *models.DomainProgress) (bool, error) {
	if challenge == nil || challenge.Domain != domain {
		return false, fmt.Errorf("challenge %w", ErrNotFound)
	}
	if progress == nil || progress.Domain != domain {
		return false, fmt.Errorf("progress for domain %s %w", domain, ErrNotFound)
	}
	return IsUnlocked(challenge.DayNumber, progress.CurrentDay), nil
}

// IsUnlocked is the unlock rule: a day opens once the pointer reaches it
func IsUnlocked(dayNumber, currentDay int) bool {
	return dayNumber <= currentDay
}

// DeriveState folds the unlock and solved flags into a single state
func DeriveState(unlocked, solved bool) models.ChallengeState {
	switch {
	case solved:
		return models.StateSolved
	case unlocked:
		return models.StateUnlocked
	default:
		return models.StateLocked
	}
}
