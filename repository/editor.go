package repository

import (
	"context"

	"github.com/fastygo/journal/domain"
)

type EditorFilter struct {
	// Approved restricts the listing to one approval state when set.
	Approved *bool
	Limit    int
	Offset   int
}

type EditorRepository interface {
	Create(ctx context.Context, profile *domain.EditorProfile) error
	GetByID(ctx context.Context, id int64) (*domain.Editor, error)
	GetByAccountID(ctx context.Context, accountID int64) (*domain.Editor, error)
	List(ctx context.Context, filter EditorFilter) ([]domain.Editor, error)
	// Approve flips is_approved for a pending profile and reports whether a row changed.
	Approve(ctx context.Context, id int64) (bool, error)
	UpdateMetadata(ctx context.Context, id int64, patch domain.ProfilePatch) (*domain.Editor, error)
}
