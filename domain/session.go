package domain

import "time"

// Session tracks an issued access token in Redis so it can be revoked before it expires.
type Session struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	EditorID  int64     `json:"editor_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// IssuedToken is a signed access token and the identifiers needed to track it.
type IssuedToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
