package repository

import (
	"context"

	"github.com/fastygo/journal/domain"
)

// SessionRepository stores issued tokens keyed by their jti. A token without a stored
// session is treated as logged out.
type SessionRepository interface {
	Get(ctx context.Context, jti string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, jti string) error
}
