package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/streak-engine/internal/models"
)

// ErrNotFound is returned by updates and deletes that matched no row
var ErrNotFound = errors.New("record not found")

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// InTx runs fn inside a read-committed transaction. Row locks taken by
// Tx.LockProgress serialize concurrent progressions of the same (user, domain).
func (r *PostgresRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// --- Users ---

// CreateUser inserts a user; a taken email yields ErrDuplicate
func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, name, email, selected_domain, role, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, string(u.SelectedDomain), u.Role, u.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !isUUID(id) {
		return nil, nil
	}

	query := `
		SELECT id::text, name, email, selected_domain, role, joined_at
		FROM users
		WHERE id = $1
	`

	var u models.User
	var domain string
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &domain, &u.Role, &u.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.SelectedDomain = models.Domain(domain)

	return &u, nil
}

// --- Challenges ---

const challengeColumns = `id::text, day_number, domain, title, category, difficulty, description, industry_note, created_at, updated_at`

// CreateChallenge inserts a challenge; an occupied (day, domain) slot yields ErrDuplicate
func (r *PostgresRepository) CreateChallenge(ctx context.Context, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (id, day_number, domain, title, category, difficulty, description, industry_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.DayNumber,
		string(c.Domain),
		c.Title,
		c.Category,
		c.Difficulty,
		c.Description,
		c.IndustryNote,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// GetChallenge retrieves a challenge by ID
func (r *PostgresRepository) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	if !isUUID(id) {
		return nil, nil
	}

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	c, err := scanChallenge(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// UpdateChallenge overwrites the content and slot of an existing challenge
func (r *PostgresRepository) UpdateChallenge(ctx context.Context, c *models.Challenge) error {
	query := `
		UPDATE challenges
		SET day_number = $2, domain = $3, title = $4, category = $5, difficulty = $6,
		    description = $7, industry_note = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.DayNumber,
		string(c.Domain),
		c.Title,
		c.Category,
		c.Difficulty,
		c.Description,
		c.IndustryNote,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChallenge deletes a challenge and, by cascade, its submissions
func (r *PostgresRepository) DeleteChallenge(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChallenges returns the challenges of a domain ordered by day,
// or every challenge when domain is empty
func (r *PostgresRepository) ListChallenges(ctx context.Context, domain models.Domain) ([]*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges`
	args := make([]interface{}, 0, 1)

	if domain != "" {
		query += ` WHERE domain = $1`
		args = append(args, string(domain))
	}
	query += ` ORDER BY domain, day_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	return collectChallenges(rows)
}

// --- Problems ---

const problemColumns = `id::text, title, domain, category, difficulty, description, created_at`

// CreateProblem inserts a practice problem
func (r *PostgresRepository) CreateProblem(ctx context.Context, p *models.Problem) error {
	query := `
		INSERT INTO problems (id, title, domain, category, difficulty, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.Title, string(p.Domain), p.Category, p.Difficulty, p.Description, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create problem: %w", err)
	}
	return nil
}

// GetProblem retrieves a problem by ID
func (r *PostgresRepository) GetProblem(ctx context.Context, id string) (*models.Problem, error) {
	if !isUUID(id) {
		return nil, nil
	}

	query := `SELECT ` + problemColumns + ` FROM problems WHERE id = $1`

	p, err := scanProblem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	return p, nil
}

// DeleteProblem deletes a problem and, by cascade, its submissions
func (r *PostgresRepository) DeleteProblem(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProblems returns problems matching filters ordered by title
func (r *PostgresRepository) ListProblems(ctx context.Context, filters models.ProblemFilters) ([]*models.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.Domain != "" {
		query += fmt.Sprintf(" AND domain = $%d", argNum)
		args = append(args, string(filters.Domain))
		argNum++
	}

	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filters.Category)
		argNum++
	}

	if filters.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argNum)
		args = append(args, filters.Difficulty)
	}

	query += " ORDER BY title ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	defer rows.Close()

	var problems []*models.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		problems = append(problems, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating problems: %w", err)
	}
	return problems, nil
}

// --- Submissions ---

// CreateSubmission appends a submission outside of a progression transaction
func (r *PostgresRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	return (&postgresTx{q: r.pool}).CreateSubmission(ctx, s)
}

// ListRecentSubmissions returns the newest submissions of a user without code
func (r *PostgresRepository) ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*models.SubmissionSummary, error) {
	query := `
		SELECT s.id::text, s.challenge_id::text, s.problem_id::text, c.day_number, p.title, s.result, s.created_at
		FROM submissions s
		LEFT JOIN challenges c ON c.id = s.challenge_id
		LEFT JOIN problems p ON p.id = s.problem_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.seq DESC
		LIMIT NULLIF($2, 0)
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var summaries []*models.SubmissionSummary
	for rows.Next() {
		var s models.SubmissionSummary
		var challengeID, problemID, problemTitle sql.NullString
		var dayNumber *int
		var result string

		if err := rows.Scan(&s.ID, &challengeID, &problemID, &dayNumber, &problemTitle, &result, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		s.ChallengeID = challengeID.String
		s.ProblemID = problemID.String
		s.DayNumber = dayNumber
		s.ProblemTitle = problemTitle.String
		s.Result = models.Result(result)
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

// SubmissionTimesSince returns creation times of a user's submissions at or after since
func (r *PostgresRepository) SubmissionTimesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT created_at FROM submissions WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan submission time: %w", err)
		}
		times = append(times, t)
	}

	return times, rows.Err()
}

// SolvedChallenges returns the challenges of a domain with at least one submission by the user
func (r *PostgresRepository) SolvedChallenges(ctx context.Context, userID string, domain models.Domain) ([]*models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges c
		WHERE c.domain = $2
		  AND EXISTS (SELECT 1 FROM submissions s WHERE s.challenge_id = c.id AND s.user_id = $1)
		ORDER BY c.day_number
	`

	rows, err := r.pool.Query(ctx, query, userID, string(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to list solved challenges: %w", err)
	}
	defer rows.Close()

	return collectChallenges(rows)
}

// SolvedProblemIDs returns the set of problems the user has submitted to
func (r *PostgresRepository) SolvedProblemIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT problem_id::text FROM submissions WHERE user_id = $1 AND problem_id IS NOT NULL`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list solved problems: %w", err)
	}
	defer rows.Close()

	solved := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan problem id: %w", err)
		}
		solved[id] = true
	}

	return solved, rows.Err()
}

// HasChallengeSubmission reports whether the user ever submitted to the challenge
func (r *PostgresRepository) HasChallengeSubmission(ctx context.Context, userID, challengeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE user_id = $1 AND challenge_id = $2)`,
		userID, challengeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check challenge submission: %w", err)
	}
	return exists, nil
}

// HasProblemSubmission reports whether the user ever submitted to the problem
func (r *PostgresRepository) HasProblemSubmission(ctx context.Context, userID, problemID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE user_id = $1 AND problem_id = $2)`,
		userID, problemID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check problem submission: %w", err)
	}
	return exists, nil
}

// --- Progress ---

// GetOrCreateProgress returns the (userID, domain) record, inserting the default once.
// The primary key on (user_id, domain) makes concurrent first accesses converge on one row.
func (r *PostgresRepository) GetOrCreateProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error) {
	return getOrCreateProgress(ctx, r.pool, userID, domain, false)
}

// postgresTx implements Tx on top of a pgx transaction
type postgresTx struct {
	q querier
}

func (t *postgresTx) LockProgress(ctx context.Context, userID string, domain models.Domain) (*models.DomainProgress, error) {
	return getOrCreateProgress(ctx, t.q, userID, domain, true)
}

func (t *postgresTx) UpdateProgress(ctx context.Context, p *models.DomainProgress) error {
	query := `
		UPDATE domain_progress
		SET current_day = $3, current_streak = $4, longest_streak = $5, updated_at = $6
		WHERE user_id = $1 AND domain = $2
	`
	result, err := t.q.Exec(ctx, query,
		p.UserID,
		string(p.Domain),
		p.CurrentDay,
		p.CurrentStreak,
		p.LongestStreak,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) CreateSubmission(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, challenge_id, problem_id, code, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	err := t.q.QueryRow(ctx, query,
		s.ID,
		s.UserID,
		nullString(s.ChallengeID),
		nullString(s.ProblemID),
		s.Code,
		string(s.Result),
		s.CreatedAt,
	).Scan(&s.Seq)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (t *postgresTx) FirstChallengeSubmission(ctx context.Context, userID, challengeID string) (*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE user_id = $1 AND challenge_id = $2
		ORDER BY seq ASC
		LIMIT 1
	`
	return scanOptionalSubmission(t.q.QueryRow(ctx, query, userID, challengeID))
}

func (t *postgresTx) LastDomainSubmission(ctx context.Context, userID string, domain models.Domain, excludeID string) (*models.Submission, error) {
	query := `
		SELECT ` + prefixed("s.", submissionColumnList) + `
		FROM submissions s
		JOIN challenges c ON c.id = s.challenge_id
		WHERE s.user_id = $1 AND c.domain = $2 AND s.id::text <> $3
		ORDER BY s.created_at DESC, s.seq DESC
		LIMIT 1
	`
	return scanOptionalSubmission(t.q.QueryRow(ctx, query, userID, string(domain), excludeID))
}

// --- helpers ---

var submissionColumnList = []string{"id::text", "seq", "user_id::text", "challenge_id::text", "problem_id::text", "code", "result", "created_at"}

var submissionColumns = prefixed("", submissionColumnList)

func prefixed(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

func getOrCreateProgress(ctx context.Context, q querier, userID string, domain models.Domain, lock bool) (*models.DomainProgress, error) {
	insert := `
		INSERT INTO domain_progress (user_id, domain, current_day, current_streak, longest_streak, updated_at)
		VALUES ($1, $2, 1, 0, 0, NOW())
		ON CONFLICT (user_id, domain) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, userID, string(domain)); err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	query := `
		SELECT user_id::text, domain, current_day, current_streak, longest_streak, updated_at
		FROM domain_progress
		WHERE user_id = $1 AND domain = $2
	`
	if lock {
		query += ` FOR UPDATE`
	}

	var p models.DomainProgress
	var d string
	err := q.QueryRow(ctx, query, userID, string(domain)).Scan(
		&p.UserID,
		&d,
		&p.CurrentDay,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	p.Domain = models.Domain(d)

	return &p, nil
}

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var c models.Challenge
	var domain string
	err := row.Scan(
		&c.ID,
		&c.DayNumber,
		&domain,
		&c.Title,
		&c.Category,
		&c.Difficulty,
		&c.Description,
		&c.IndustryNote,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Domain = models.Domain(domain)
	return &c, nil
}

func collectChallenges(rows pgx.Rows) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}
	return challenges, nil
}

func scanProblem(row pgx.Row) (*models.Problem, error) {
	var p models.Problem
	var domain string
	if err := row.Scan(&p.ID, &p.Title, &domain, &p.Category, &p.Difficulty, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Domain = models.Domain(domain)
	return &p, nil
}

func scanOptionalSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	var challengeID, problemID sql.NullString
	var result string

	err := row.Scan(&s.ID, &s.Seq, &s.UserID, &challengeID, &problemID, &s.Code, &result, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	s.ChallengeID = challengeID.String
	s.ProblemID = problemID.String
	s.Result = models.Result(result)
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
