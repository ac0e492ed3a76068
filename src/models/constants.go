package models

// Role represents the account role of a user
type Role string

const (
	// RoleAdmin identifies administrators allowed to manage accounts
	RoleAdmin Role = "admin"
	// RoleUser identifies regular accounts
	RoleUser Role = "user"
)

// Status represents the activation status derived from the active flag
type Status string

const (
	// StatusActive is derived from an active flag set to true
	StatusActive Status = "active"
	// StatusInactive is derived from an active flag set to false
	StatusInactive Status = "inactive"
)

// AccountKind selects which backend login/registration flow is used
type AccountKind string

const (
	AccountKindAdmin AccountKind = "admin"
	AccountKindUser  AccountKind = "user"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Valid reports whether the status is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Valid reports whether the account kind is known
func (k AccountKind) Valid() bool {
	return k == AccountKindAdmin || k == AccountKindUser
}
