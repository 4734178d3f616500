package domain

import (
	"strings"
	"time"
)

// Account is the login identity backing an editor profile.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
}

// FullName joins first and last name the way the directory displays it.
func (a *Account) FullName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Principal is the caller resolved from a verified bearer token.
type Principal struct {
	AccountID int64
	EditorID  int64
	TokenID   string
	Token     string
}
