// Package model defines domain types shared across the application:
// users, attractions, visitor messages, and event log entries.
package model

import (
	"database/sql"
	"time"
)

// User roles. Roles are stored as plain strings in the users table.
const (
	RoleAdministrator = "Administrator"
	RoleEditor        = "Editor"
	RoleViewer        = "Viewer"
)

// User statuses.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdministrator, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// User represents an account in the credential store.
type User struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	Status       string       `json:"status"`
	LastActive   sql.NullTime `json:"-"`
}

// IsAdmin returns true if the user has the Administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

// IsActive returns true if the account may log in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UserView is the JSON shape returned to API callers. It carries the
// non-secret account fields only; last_active is "Never" for accounts
// that have not logged in yet.
type UserView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	LastActive string `json:"last_active"`
}

// View converts a User to its API representation.
func (u *User) View() UserView {
	lastActive := "Never"
	if u.LastActive.Valid {
		lastActive = u.LastActive.Time.UTC().Format(time.RFC3339)
	}
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		LastActive: lastActive,
	}
}
