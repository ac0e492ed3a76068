package models

import (
	"time"
)

// User represents a user record as returned by the backend
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"` // zero when the backend sent nothing parseable
	Avatar    string    `json:"avatar,omitempty"`
}

// Status derives the filterable status key from the active flag
func (u *User) Status() Status {
	if u.Active {
		return StatusActive
	}
	return StatusInactive
}

// IsAdmin returns true if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserInput is the payload for creating an account
type CreateUserInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=admin user"`
	Active   *bool  `json:"active,omitempty"`
}

// UpdateUserInput is the payload for editing an account
type UpdateUserInput struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Role   Role   `json:"role" binding:"required,oneof=admin user"`
	Active bool   `json:"active"`
}

// LoginCredentials holds the login form fields
type LoginCredentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Apply returns a copy of the user with the editable fields replaced
func (in UpdateUserInput) Apply(u User) User {
	u.Name = in.Name
	u.Email = in.Email
	u.Role = in.Role
	u.Active = in.Active
	return u
}
