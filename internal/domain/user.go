package domain

import "time"

// UserRole represents the access level of an account.
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleModerator, UserRoleAdmin:
		return true
	}
	return false
}

// User is the domain model for ticket requesters, moderators and admins.
// Skills are free text supplied by the user and are not checked against the skill catalog.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         UserRole
	Skills       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsModerator reports whether the user can receive ticket assignments.
func (u *User) IsModerator() bool {
	return u != nil && u.Role == UserRoleModerator
}
