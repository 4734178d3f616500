package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/repository"
)

type accountRepository struct {
	db Queryer
}

// NewAccountRepository instantiates a Postgres-backed account repository.
func NewAccountRepository(db Queryer) repository.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, username, email, first_name, last_name, password_hash, is_active, is_staff, date_joined`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO accounts (username, email, first_name, last_name, password_hash, is_active, is_staff)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, date_joined
	`

	if err := r.db.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.IsActive,
		account.IsStaff,
	).Scan(&account.ID, &account.DateJoined); err != nil {
		return mapWriteError(err, "account already exists")
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *accountRepository) ListActiveByEmail(ctx context.Context, email string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 AND is_active ORDER BY id`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanAccount(row scanner) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.IsActive,
		&account.IsStaff,
		&account.DateJoined,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
