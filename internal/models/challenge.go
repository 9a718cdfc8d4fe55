package models

import "time"

// Challenge is the content unlocked on a given day of a domain's program.
// (DayNumber, Domain) is unique.
type Challenge struct {
	ID           string    `json:"id" yaml:"-"`
	DayNumber    int       `json:"day_number" yaml:"day"`
	Domain       Domain    `json:"domain" yaml:"domain"`
	Title        string    `json:"title" yaml:"title"`
	Category     string    `json:"category" yaml:"category"`
	Difficulty   string    `json:"difficulty" yaml:"difficulty"`
	Description  string    `json:"description" yaml:"description"`
	IndustryNote string    `json:"industry_note" yaml:"industry_note"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// Problem is a standalone practice item outside the daily program
type Problem struct {
	ID          string    `json:"id" yaml:"-"`
	Title       string    `json:"title" yaml:"title"`
	Domain      Domain    `json:"domain" yaml:"domain"`
	Category    string    `json:"category" yaml:"category"`
	Difficulty  string    `json:"difficulty" yaml:"difficulty"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// ProblemFilters narrows a problem listing
type ProblemFilters struct {
	Domain     Domain
	Category   string
	Difficulty string
}

// CreateChallengeRequest represents an admin request to add a challenge
type CreateChallengeRequest struct {
	DayNumber    int    `json:"day_number" validate:"required,min=1,max=60"`
	Domain       Domain `json:"domain" validate:"required,oneof=SE ML AI"`
	Title        string `json:"title" validate:"max=200"`
	Category     string `json:"category" validate:"required"`
	Difficulty   string `json:"difficulty" validate:"required"`
	Description  string `json:"description" validate:"required"`
	IndustryNote string `json:"industry_note"`
}

// UpdateChallengeRequest holds a partial challenge update; nil fields are kept
type UpdateChallengeRequest struct {
	DayNumber    *int    `json:"day_number,omitempty" validate:"omitempty,min=1,max=60"`
	Domain       *Domain `json:"domain,omitempty" validate:"omitempty,oneof=SE ML AI"`
	Title        *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Category     *string `json:"category,omitempty" validate:"omitempty,min=1"`
	Difficulty   *string `json:"difficulty,omitempty" validate:"omitempty,min=1"`
	Description  *string `json:"description,omitempty" validate:"omitempty,min=1"`
	IndustryNote *string `json:"industry_note,omitempty"`
}

// Apply copies the set fields onto c
func (r *UpdateChallengeRequest) Apply(c *Challenge) {
	if r.DayNumber != nil {
		c.DayNumber = *r.DayNumber
	}
	if r.Domain != nil {
		c.Domain = *r.Domain
	}
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Category != nil {
		c.Category = *r.Category
	}
	if r.Difficulty != nil {
		c.Difficulty = *r.Difficulty
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.IndustryNote != nil {
		c.IndustryNote = *r.IndustryNote
	}
}

// CreateProblemRequest represents an admin request to add a practice problem
type CreateProblemRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Domain      Domain `json:"domain" validate:"required,oneof=SE ML AI"`
	Category    string `json:"category" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// ProblemView is a problem annotated for the caller
type ProblemView struct {
	*Problem
	Solved bool `json:"solved"`
}
