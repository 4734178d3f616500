package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/pkg/logger"
	editorUC "github.com/fastygo/journal/usecase/editor"
)

type StaffInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// StaffResult is a staff account and, for StaffLogin, its freshly issued token.
type StaffResult struct {
	Account domain.Account
	Token   domain.IssuedToken
	Created bool
}

// EnsureStaff returns the active staff account registered under the email, creating it
// when the email is unused. An existing staff account must match the password. An email
// already held by a non-staff account is a conflict.
func (uc *UseCase) EnsureStaff(ctx context.Context, in StaffInput) (*StaffResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	account, err := uc.matchStaff(ctx, in.Email, in.Password)
	if err == nil {
		return &StaffResult{Account: *account}, nil
	}
	if !errors.Is(err, errNoStaff) {
		return nil, err
	}

	exists, err := uc.accounts.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "check email", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, domain.NewValidationError(map[string]string{"password": "Ensure this field has no more than 72 bytes."})
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	created := &domain.Account{
		Username:     "staff-" + editorUC.NewUsername(in.FirstName),
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
	}
	if err := uc.accounts.Create(ctx, created); err != nil {
		if _, ok := domain.AsDomainError(err); ok {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "create staff account", err)
	}
	logger.WithRequestID(ctx, uc.logger).Info("staff account created",
		zap.Int64("account_id", created.ID), zap.String("username", created.Username))
	return &StaffResult{Account: *created, Created: true}, nil
}

// StaffLogin signs a token for an active staff account. Staff tokens carry no editor id.
func (uc *UseCase) StaffLogin(ctx context.Context, email, plain string) (*StaffResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || plain == "" {
		return nil, domain.ErrMissingCredentials
	}

	account, err := uc.matchStaff(ctx, email, plain)
	if err != nil {
		if errors.Is(err, errNoStaff) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	issued, err := uc.IssueSession(ctx, *account, domain.EditorProfile{})
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("staff logged in", zap.Int64("account_id", account.ID))
	return &StaffResult{Account: *account, Token: issued}, nil
}

var errNoStaff = errors.New("no staff account for email")

// matchStaff finds the staff account for email. errNoStaff means none exists; a staff
// account with a different password yields ErrInvalidCredentials.
func (uc *UseCase) matchStaff(ctx context.Context, email, plain string) (*domain.Account, error) {
	candidates, err := uc.accounts.ListActiveByEmail(ctx, email)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "lookup accounts", err)
	}

	staff := 0
	for _, account := range candidates {
		if !account.IsStaff {
			continue
		}
		staff++
		if err := uc.hasher.Compare(account.PasswordHash, plain); err != nil {
			if !errors.Is(err, password.ErrMismatch) {
				uc.logger.Warn("password check failed", zap.Int64("account_id", account.ID), zap.Error(err))
			}
			continue
		}
		account := account
		return &account, nil
	}
	if staff > 0 {
		return nil, domain.ErrInvalidCredentials
	}
	return nil, errNoStaff
}
