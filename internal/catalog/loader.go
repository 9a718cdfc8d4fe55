package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/streak-engine/internal/models"
)

// Loader reads catalog YAML files and keeps their entries de-duplicated
type Loader struct {
	mu         sync.RWMutex
	users      map[string]*models.CreateUserRequest
	challenges map[slot]*models.Challenge
	problems   map[string]*models.Problem
}

type slot struct {
	domain models.Domain
	day    int
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		users:      make(map[string]*models.CreateUserRequest),
		challenges: make(map[slot]*models.Challenge),
		problems:   make(map[string]*models.Problem),
	}
}

// LoadFromDir loads every YAML file in dir
func (l *Loader) LoadFromDir(dir string) error {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list catalog files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load catalog file", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("catalog loaded", "dir", dir, "files", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single catalog YAML file. Invalid entries are skipped;
// on a repeated slot, email or problem title the first entry wins.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range f.Users {
		u := f.Users[i].request()
		if err := validateUser(u); err != nil {
			slog.Warn("skipping catalog user", "file", path, "index", i, "error", err)
			continue
		}
		if _, exists := l.users[u.Email]; exists {
			continue
		}
		l.users[u.Email] = u
	}

	for i := range f.Challenges {
		c := f.Challenges[i]
		if err := validateChallenge(&c); err != nil {
			slog.Warn("skipping catalog challenge", "file", path, "index", i, "error", err)
			continue
		}
		key := slot{domain: c.Domain, day: c.DayNumber}
		if _, exists := l.challenges[key]; exists {
			slog.Warn("duplicate catalog challenge", "file", path, "domain", c.Domain, "day", c.DayNumber)
			continue
		}
		l.challenges[key] = &c
	}

	for i := range f.Problems {
		p := f.Problems[i]
		if err := validateProblem(&p); err != nil {
			slog.Warn("skipping catalog problem", "file", path, "index", i, "error", err)
			continue
		}
		key := problemKey(p.Domain, p.Title)
		if _, exists := l.problems[key]; exists {
			continue
		}
		l.problems[key] = &p
	}

	slog.Info("catalog file loaded", "file", path,
		"users", len(f.Users), "challenges", len(f.Challenges), "problems", len(f.Problems))
	return nil
}

// Users returns loaded users ordered by email
func (l *Loader) Users() []*models.CreateUserRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.CreateUserRequest, 0, len(l.users))
	for _, u := range l.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result
}

// Challenges returns loaded challenges ordered by domain then day
func (l *Loader) Challenges() []*models.Challenge {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Challenge, 0, len(l.challenges))
	for _, c := range l.challenges {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Domain != result[j].Domain {
			return result[i].Domain < result[j].Domain
		}
		return result[i].DayNumber < result[j].DayNumber
	})
	return result
}

// GetChallenge returns the challenge occupying a slot, or nil
func (l *Loader) GetChallenge(domain models.Domain, day int) *models.Challenge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.challenges[slot{domain: domain, day: day}]
}

// Problems returns loaded problems ordered by domain then title
func (l *Loader) Problems() []*models.Problem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Problem, 0, len(l.problems))
	for _, p := range l.problems {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Domain != result[j].Domain {
			return result[i].Domain < result[j].Domain
		}
		return result[i].Title < result[j].Title
	})
	return result
}

func validateUser(u *models.CreateUserRequest) error {
	if u.Name == "" || u.Email == "" {
		return fmt.Errorf("name and email are required")
	}
	if !u.SelectedDomain.IsValid() {
		return fmt.Errorf("unknown domain %q", u.SelectedDomain)
	}
	if u.Role != "" && u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

func validateChallenge(c *models.Challenge) error {
	if !c.Domain.IsValid() {
		return fmt.Errorf("unknown domain %q", c.Domain)
	}
	if c.DayNumber < 1 || c.DayNumber > models.ProgramDays {
		return fmt.Errorf("day must be between 1 and %d, got %d", models.ProgramDays, c.DayNumber)
	}
	if c.Category == "" || c.Difficulty == "" || c.Description == "" {
		return fmt.Errorf("category, difficulty and description are required")
	}
	return nil
}

func validateProblem(p *models.Problem) error {
	if !p.Domain.IsValid() {
		return fmt.Errorf("unknown domain %q", p.Domain)
	}
	if p.Title == "" || p.Category == "" || p.Difficulty == "" || p.Description == "" {
		return fmt.Errorf("title, category, difficulty and description are required")
	}
	return nil
}

func problemKey(domain models.Domain, title string) string {
	return string(domain) + "/" + strings.ToLower(strings.TrimSpace(title))
}

// --- YAML file structs ---

// catalogFile represents the YAML structure of a catalog file
type catalogFile struct {
	Users      []userFile         `yaml:"users"`
	Challenges []models.Challenge `yaml:"challenges"`
	Problems   []models.Problem   `yaml:"problems"`
}

// userFile represents a user entry in a catalog file
type userFile struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Domain string `yaml:"domain"`
	Role   string `yaml:"role"`
}

func (u userFile) request() *models.CreateUserRequest {
	return &models.CreateUserRequest{
		Name:           strings.TrimSpace(u.Name),
		Email:          strings.ToLower(strings.TrimSpace(u.Email)),
		SelectedDomain: models.Domain(strings.ToUpper(strings.TrimSpace(u.Domain))),
		Role:           u.Role,
	}
}
