package repository

import (
	"context"

	"github.com/fastygo/journal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// ListActiveByEmail returns active accounts sharing the email, oldest first.
	ListActiveByEmail(ctx context.Context, email string) ([]domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
