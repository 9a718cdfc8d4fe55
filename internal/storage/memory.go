package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/streak-engine/internal/models"
)

type slotKey struct {
	day    int
	domain models.Domain
}

type progressKey struct {
	userID string
	domain models.Domain
}

// MemoryRepository implements Repository in process memory.
// It backs local runs and tests; InTx calls are fully serialized.
type MemoryRepository struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users       map[string]*models.User
	emails      map[string]string
	challenges  map[string]*models.Challenge
	slots       map[slotKey]string
	problems    map[string]*models.Problem
	submissions []*models.Submission
	progress    map[progressKey]*models.DomainProgress
	seq         int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[string]*models.User),
		emails:     make(map[string]string),
		challenges: make(map[string]*models.Challenge),
		slots:      make(map[slotKey]string),
		problems:   make(map[string]*models.Problem),
		progress:   make(map[progressKey]*models.DomainProgress),
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }

// InTx runs fn with writes buffered until fn returns nil
func (r *MemoryRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{repo: r, progress: make(map[progressKey]*models.DomainProgress)}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, tx.submissions...)
	for k, p := range tx.progress {
		r.progress[k] = p
	}
	return nil
}

// --- Users ---

func (r *MemoryRepository) CreateUser(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[u.Email]; taken {
		return ErrDuplicate
	}
	if _, taken := r.users[u.ID]; taken {
		return ErrDuplicate
	}

	cp := *u
	r.users[u.ID] = &cp
	r.emails[u.Email] = u.ID
	return nil
}

func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// --- Challenges ---

func (r *MemoryRepository) CreateChallenge(ctx context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey{day: c.DayNumber, domain: c.Domain}
	if _, taken := r.slots[key]; taken {
		return ErrDuplicate
	}

	cp := *c
	r.challenges[c.ID] = &cp
	r.slots[key] = c.ID
	return nil
}

func (r *MemoryRepository) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.challenges[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateChallenge(ctx context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.challenges[c.ID]
	if !ok {
		return ErrNotFound
	}

	oldKey := slotKey{day: old.DayNumber, domain: old.Domain}
	newKey := slotKey{day: c.DayNumber, domain: c.Domain}
	if owner, taken := r.slots[newKey]; taken && owner != c.ID {
		return ErrDuplicate
	}

	delete(r.slots, oldKey)
	r.slots[newKey] = c.ID
	cp := *c
	r.challenges[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) DeleteChallenge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[id]
	if !ok {
		return ErrNotFound
	}

	delete(r.slots, slotKey{day: c.DayNumber, domain: c.Domain})
	delete(r.challenges, id)
	r.submissions = dropSubmissions(r.submissions, func(s *models.Submission) bool {
		return s.ChallengeID == id
	})
	return nil
}

func (r *MemoryRepository) ListChallenges(ctx context.Context, domain models.Domain) ([]*models.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Challenge
	for _, c := range r.challenges {
		if domain != "" && c.Domain != domain {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sortChallenges(out)
	return out, nil
}

// --- Problems ---

func (r *MemoryRepository) CreateProblem(ctx context.Context, p *models.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.problems[p.ID]; taken {
		return ErrDuplicate
	}
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetProblem(ctx context.Context, id string) (*models.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.problems[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) DeleteProblem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.problems[id]; !ok {
		return ErrNotFound
	}
	delete(r.problems, id)
	r.submissions = dropSubmissions(r.submissions, func(s *models.Submission) bool {
		return s.ProblemID == id
	})
	return nil
}

func (r *MemoryRepository) ListProblems(ctx context.Context, filters models.ProblemFilters) ([]*models.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Problem
	for _, p := range r.problems {
		if filters.Domain != "" && p.Domain != filters.Domain {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.Difficulty != "" && p.Difficulty != filters.Difficulty {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// --- Submissions ---

func (r *MemoryRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	s.Seq = r.seq
	cp := *s
	r.submissions = append(r.submissions, &cp)
	return nil
}

func (r *MemoryRepository) ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*models.SubmissionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subs []*models.Submission
	for _, s := range r.submissions {
		if s.UserID == userID {
			subs = append(subs, s)
		}
	}
	sortNewestFirst(subs)
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}

	out := make([]*models.SubmissionSummary, 0, len(subs))
	for _, s := range subs {
		summary := &models.SubmissionSummary{
			ID:          s.ID,
			ChallengeID: s.ChallengeID,
			ProblemID:   s.ProblemID,
			Result:      s.Result,
			CreatedAt:   s.CreatedAt,
		}
		if c, ok := r.challenges[s.ChallengeID]; ok {
			day := c.DayNumber
			summary.DayNumber = &day
		}
		if p, ok := r.problems[s.ProblemID]; ok {
			summary.ProblemTitle = p.Title
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r *MemoryRepository) SubmissionTimesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []time.Time
	for _, s := range r.submissions {
		if s.UserID == userID && !s.CreatedAt.Before(since) {
			out = append(out, s.CreatedAt)
		}
	}
	return out, nil
}

func (r *MemoryRepository) SolvedChallenges(ctx context.Context, userID string, domain models.Domain) ([]*models.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []*models.Challenge
	for _, s := range r.submissions {
		if s.UserID != userID || s.ChallengeID == "" || seen[s.ChallengeID] {
			continue
		}
		c, ok := r.challenges[s.ChallengeID]
		if !ok || c.Domain != domain {
			continue
		}
		seen[s.ChallengeID] = true
		cp := *c
		out = append(out, &cp)
	}
	sortChallenges(out)
	return out, nil
}

func (r *MemoryRepository) SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	solved := make(map[string]bool)
	for _, s := range r.submissions {
		if s.UserID == userID && s.ProblemID != "" {
			solved[s.ProblemID] = true
		}
	}
	return solved, nil
}

func (r *MemoryRepository) HasChallengeSubmission(ctx context.Context, userID, challengeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.submissions {
		if s.UserID == userID && s.ChallengeID == challengeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) HasProblemSubmission(ctx context.Context, userID, problemID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.submissions {
		if s.UserID == userID && s.ProblemID == problemID {
			return true, nil
		}
	}
	return false, nil
}

// --- Progress ---

func (r *MemoryRepository) GetOrCreateProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := progressKey{userID: userID, domain: domain}
	p, ok := r.progress[key]
	if !ok {
		p = models.NewDomainProgress(userID, domain)
		r.progress[key] = p
	}
	cp := *p
	return &cp, nil
}

// memoryTx buffers submissions and progress writes until commit
type memoryTx struct {
	repo        *MemoryRepository
	submissions []*models.Submission
	progress    map[progressKey]*models.DomainProgress
}

func (t *memoryTx) LockProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error) {
	key := progressKey{userID: userID, domain: domain}
	if p, ok := t.progress[key]; ok {
		cp := *p
		return &cp, nil
	}

	t.repo.mu.RLock()
	p, ok := t.repo.progress[key]
	t.repo.mu.RUnlock()

	if !ok {
		p = models.NewDomainProgress(userID, domain)
	}
	cp := *p
	t.progress[key] = &cp
	out := cp
	return &out, nil
}

func (t *memoryTx) UpdateProgress(ctx context.Context, p *models.DomainProgress) error {
	key := progressKey{userID: p.UserID, domain: p.Domain}
	if _, ok := t.progress[key]; !ok {
		return ErrNotFound
	}
	cp := *p
	t.progress[key] = &cp
	return nil
}

func (t *memoryTx) CreateSubmission(ctx context.Context, s *models.Submission) error {
	t.repo.mu.Lock()
	t.repo.seq++
	s.Seq = t.repo.seq
	t.repo.mu.Unlock()

	cp := *s
	t.submissions = append(t.submissions, &cp)
	return nil
}

func (t *memoryTx) FirstChallengeSubmission(ctx context.Context, userID, challengeID string) (*models.Submission, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	var first *models.Submission
	for _, s := range t.visible() {
		if s.UserID != userID || s.ChallengeID != challengeID {
			continue
		}
		if first == nil || s.Seq < first.Seq {
			first = s
		}
	}
	return copySubmission(first), nil
}

func (t *memoryTx) LastDomainSubmission(ctx context.Context, userID string, domain models.Domain, excludeID string) (*models.Submission, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	var newest *models.Submission
	for _, s := range t.visible() {
		if s.UserID != userID || s.ID == excludeID || s.ChallengeID == "" {
			continue
		}
		c, ok := t.repo.challenges[s.ChallengeID]
		if !ok || c.Domain != domain {
			continue
		}
		if newest == nil || isNewer(s, newest) {
			newest = s
		}
	}
	return copySubmission(newest), nil
}

// visible returns committed plus pending submissions; callers hold repo.mu
func (t *memoryTx) visible() []*models.Submission {
	all := make([]*models.Submission, 0, len(t.repo.submissions)+len(t.submissions))
	all = append(all, t.repo.submissions...)
	return append(all, t.submissions...)
}

// --- helpers ---

func isNewer(a, b *models.Submission) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Seq > b.Seq
}

func sortNewestFirst(subs []*models.Submission) {
	sort.Slice(subs, func(i, j int) bool { return isNewer(subs[i], subs[j]) })
}

func sortChallenges(cs []*models.Challenge) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Domain != cs[j].Domain {
			return cs[i].Domain < cs[j].Domain
		}
		return cs[i].DayNumber < cs[j].DayNumber
	})
}

func copySubmission(s *models.Submission) *models.Submission {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func dropSubmissions(subs []*models.Submission, drop func(*models.Submission) bool) []*models.Submission {
	kept := subs[:0]
	for _, s := range subs {
		if !drop(s) {
			kept = append(kept, s)
		}
	}
	return kept
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
