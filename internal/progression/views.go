package progression

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/terra-clan/streak-engine/internal/models"
)

const (
	recentActivityLimit = 10
	maxSubmissionsLimit = 50
	weeklyWindowDays    = 7
)

// ProblemQuery filters the practice problem listing
type ProblemQuery struct {
	Domain     string
	Category   string
	Difficulty string
}

// Board returns every day slot of a domain for the user
func (s *Service) Board(ctx context.Context, userID, domain string) (*models.ChallengeBoard, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, err := resolveDomain(user, domain)
	if err != nil {
		return nil, err
	}

	progress, err := s.repo.GetOrCreateProgress(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	challenges, err := s.repo.ListChallenges(ctx, d)
	if err != nil {
		return nil, err
	}

	solved, err := s.repo.SolvedChallenges(ctx, userID, d)
	if err != nil {
		return nil, err
	}
	solvedIDs := make(map[string]bool, len(solved))
	for _, c := range solved {
		solvedIDs[c.ID] = true
	}

	byDay := make(map[int]*models.Challenge, len(challenges))
	for _, c := range challenges {
		byDay[c.DayNumber] = c
	}

	board := &models.ChallengeBoard{
		Domain:        d,
		CurrentDay:    progress.CurrentDay,
		CurrentStreak: progress.CurrentStreak,
		LongestStreak: progress.LongestStreak,
		Days:          make([]*models.DaySlot, 0, models.ProgramDays),
	}

	for day := 1; day <= models.ProgramDays; day++ {
		slot := &models.DaySlot{
			DayNumber: day,
			Unlocked:  IsUnlocked(day, progress.CurrentDay),
		}
		if c, ok := byDay[day]; ok {
			slot.Configured = true
			slot.Solved = solvedIDs[c.ID]
			slot.Challenge = c
		}
		slot.State = DeriveState(slot.Unlocked, slot.Solved)
		board.Days = append(board.Days, slot)
	}

	return board, nil
}

// Challenge returns one challenge with its unlock and solved flags.
// Challenges outside the browsed domain are reported as not found.
func (s *Service) Challenge(ctx context.Context, userID, challengeID, domain string) (*models.ChallengeDetail, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, err := resolveDomain(user, domain)
	if err != nil {
		return nil, err
	}

	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.Domain != d {
		return nil, fmt.Errorf("challenge %w", ErrNotFound)
	}

	progress, err := s.repo.GetOrCreateProgress(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	unlocked, err := CheckUnlock(challenge, d, progress)
	if err != nil {
		return nil, err
	}

	solved, err := s.repo.HasChallengeSubmission(ctx, userID, challenge.ID)
	if err != nil {
		return nil, err
	}

	return &models.ChallengeDetail{
		Challenge: challenge,
		Unlocked:  unlocked,
		Solved:    solved,
		State:     DeriveState(unlocked, solved),
	}, nil
}

// Dashboard aggregates the user's progress in a domain
func (s *Service) Dashboard(ctx context.Context, userID, domain string) (*models.Dashboard, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, err := resolveDomain(user, domain)
	if err != nil {
		return nil, err
	}

	progress, err := s.repo.GetOrCreateProgress(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	solved, err := s.repo.SolvedChallenges(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	today := utcDate(s.now())
	since := today.AddDate(0, 0, -(weeklyWindowDays - 1))
	times, err := s.repo.SubmissionTimesSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.ListRecentSubmissions(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	days := make(map[int]bool, len(solved))
	categories := make(map[string]int)
	difficulties := make(map[string]int)
	for _, c := range solved {
		days[c.DayNumber] = true
		categories[c.Category]++
		difficulties[c.Difficulty]++
	}

	weekly := make([]models.DailyCount, weeklyWindowDays)
	for i := range weekly {
		weekly[i].Day = since.AddDate(0, 0, i).Format("2006-01-02")
	}
	for _, t := range times {
		if idx := CalendarDaysBetween(since, t); idx >= 0 && idx < weeklyWindowDays {
			weekly[idx].Submissions++
		}
	}

	if recent == nil {
		recent = []*models.SubmissionSummary{}
	}

	return &models.Dashboard{
		Domain:               d,
		CurrentDay:           progress.CurrentDay,
		CurrentStreak:        progress.CurrentStreak,
		LongestStreak:        progress.LongestStreak,
		TotalProblemsSolved:  len(days),
		CompletionPercentage: completionPercentage(len(days)),
		CategoryProgress:     namedCounts(categories),
		DifficultyBreakdown:  namedCounts(difficulties),
		WeeklySubmissions:    weekly,
		RecentActivity:       recent,
	}, nil
}

// Profile returns the user with progress in every domain, creating missing records
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: user}
	for _, d := range models.Domains {
		p, err := s.repo.GetOrCreateProgress(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		profile.Progress = append(profile.Progress, p)
	}
	return profile, nil
}

// RecentSubmissions lists the newest submissions of the user, at most 50
func (s *Service) RecentSubmissions(ctx context.Context, userID string, limit int) ([]*models.SubmissionSummary, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = recentActivityLimit
	}
	if limit > maxSubmissionsLimit {
		limit = maxSubmissionsLimit
	}

	subs, err := s.repo.ListRecentSubmissions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*models.SubmissionSummary{}
	}
	return subs, nil
}

// Problems lists practice problems of a domain with solved flags.
// An unknown or empty domain falls back to the user's selected domain.
func (s *Service) Problems(ctx context.Context, userID string, q ProblemQuery) ([]*models.ProblemView, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, ok := models.ParseDomain(q.Domain)
	if !ok {
		d = user.SelectedDomain
	}

	problems, err := s.repo.ListProblems(ctx, models.ProblemFilters{
		Domain:     d,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	})
	if err != nil {
		return nil, err
	}

	solved, err := s.repo.SolvedProblemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ProblemView, 0, len(problems))
	for _, p := range problems {
		views = append(views, &models.ProblemView{Problem: p, Solved: solved[p.ID]})
	}
	return views, nil
}

// Problem returns a single practice problem with its solved flag
func (s *Service) Problem(ctx context.Context, userID, problemID string) (*models.ProblemView, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	problem, err := s.repo.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, fmt.Errorf("problem %w", ErrNotFound)
	}

	solved, err := s.repo.HasProblemSubmission(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	return &models.ProblemView{Problem: problem, Solved: solved}, nil
}

// resolveDomain picks the browsed domain: explicit input wins, otherwise
// the user's selected domain
func resolveDomain(user *models.User, raw string) (models.Domain, error) {
	if raw == "" {
		return user.SelectedDomain, nil
	}
	d, ok := models.ParseDomain(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown domain %q", ErrValidation, raw)
	}
	return d, nil
}

func completionPercentage(solved int) int {
	return int(math.Round(float64(solved) / float64(models.ProgramDays) * 100))
}

func namedCounts(counts map[string]int) []models.NamedCount {
	out := make([]models.NamedCount, 0, len(counts))
	for name, v := range counts {
		out = append(out, models.NamedCount{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
