package models

import "time"

// Role values carried in session tokens
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a platform member. Progress is tracked per domain in DomainProgress.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	SelectedDomain Domain    `json:"selected_domain"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
}

// IsAdmin reports whether the user may manage content
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CreateUserRequest represents an admin request to register a user
type CreateUserRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Email          string `json:"email" validate:"required,email"`
	SelectedDomain Domain `json:"selected_domain" validate:"required,oneof=SE ML AI"`
	Role           string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Profile is the user together with progress in every domain
type Profile struct {
	User     *User             `json:"user"`
	Progress []*DomainProgress `json:"progress"`
}
