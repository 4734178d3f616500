package usecase

import (
	"context"

	"github.com/fastygo/journal/domain"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferProfileUpdate(ctx context.Context, editorID int64, patch domain.ProfilePatch) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type TokenIssuer interface {
	Issue(account domain.Account, profile domain.EditorProfile) (domain.IssuedToken, error)
}
