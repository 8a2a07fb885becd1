package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Account field limits
const (
	EmailMaxLength = 255
	NameMaxLength  = 255
)

// Role represents the access role of a user
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleLegal  Role = "LEGAL"
	RoleViewer Role = "VIEWER"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleLegal || r == RoleViewer
}

// UserStatus represents whether an account may act
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User represents an operator account
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser creates an active user. The password must already be hashed.
func NewUser(id, email, name, passwordHash string, role Role, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewValidationError("email", "invalid email format")
	}
	if utf8.RuneCountInString(email) > EmailMaxLength {
		return nil, NewValidationError("email", "email must be at most 255 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return nil, NewValidationError("name", "name must be at most 255 characters")
	}
	if !role.IsValid() {
		return nil, NewValidationError("role", "invalid role")
	}
	if passwordHash == "" {
		return nil, NewValidationError("password", "password is required")
	}

	return &User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Actor builds the principal for a request made by u
func (u *User) Actor(ipAddress, userAgent string) Actor {
	return Actor{
		ID:        u.ID,
		Role:      u.Role,
		Status:    u.Status,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// Actor is the authenticated principal performing an operation
type Actor struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
}

// IsActive reports whether the actor may perform mutating operations
func (a Actor) IsActive() bool {
	return a.Status == UserStatusActive
}
