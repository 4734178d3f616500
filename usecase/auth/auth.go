package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/internal/token"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository"
	"github.com/fastygo/journal/usecase"
)

// TokenService issues and verifies access tokens.
type TokenService interface {
	usecase.TokenIssuer
	Parse(raw string) (*token.Claims, error)
}

type Policy struct {
	// RequireApprovalForLogin refuses tokens to editors still pending approval.
	RequireApprovalForLogin bool
}

// Result is an editor together with the token that identifies the caller.
type Result struct {
	Token  domain.IssuedToken
	Editor domain.Editor
}

type UseCase struct {
	accounts repository.AccountRepository
	editors  repository.EditorRepository
	sessions repository.SessionRepository
	hasher   usecase.PasswordHasher
	tokens   TokenService
	policy   Policy
	logger   *zap.Logger
}

// New wires the login flow. sessions may be nil, in which case tokens cannot be revoked.
func New(
	accounts repository.AccountRepository,
	editors repository.EditorRepository,
	sessions repository.SessionRepository,
	hasher usecase.PasswordHasher,
	tokens TokenService,
	policy Policy,
	log *zap.Logger,
) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		accounts: accounts,
		editors:  editors,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		policy:   policy,
		logger:   log,
	}
}

// Login authenticates by email and password. Several accounts may share an email; the
// first active one whose password matches and which owns an editor profile wins.
func (uc *UseCase) Login(ctx context.Context, email, plain string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || plain == "" {
		return nil, domain.ErrMissingCredentials
	}

	log := logger.WithRequestID(ctx, uc.logger)
	candidates, err := uc.accounts.ListActiveByEmail(ctx, email)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "lookup accounts", err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrInvalidCredentials
	}

	var selected *domain.Editor
	for _, account := range candidates {
		if err := uc.hasher.Compare(account.PasswordHash, plain); err != nil {
			if !errors.Is(err, password.ErrMismatch) {
				log.Warn("password check failed", zap.Int64("account_id", account.ID), zap.Error(err))
			}
			continue
		}
		editor, err := uc.editors.GetByAccountID(ctx, account.ID)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				continue
			}
			return nil, domain.WrapError(domain.ErrCodeInternal, "lookup editor", err)
		}
		selected = editor
		break
	}
	if selected == nil {
		return nil, domain.ErrNoEditorAccount
	}
	if uc.policy.RequireApprovalForLogin && !selected.Profile.IsApproved {
		return nil, domain.ErrPendingApproval
	}

	issued, err := uc.IssueSession(ctx, selected.Account, selected.Profile)
	if err != nil {
		return nil, err
	}
	log.Info("editor logged in", zap.Int64("eic_id", selected.Profile.ID), zap.Int64("account_id", selected.Account.ID))
	return &Result{Token: issued, Editor: *selected}, nil
}

// IssueSession signs a token and records its session.
func (uc *UseCase) IssueSession(ctx context.Context, account domain.Account, profile domain.EditorProfile) (domain.IssuedToken, error) {
	issued, err := uc.tokens.Issue(account, profile)
	if err != nil {
		return domain.IssuedToken{}, domain.WrapError(domain.ErrCodeInternal, "issue token", err)
	}
	if uc.sessions == nil {
		return issued, nil
	}
	session := &domain.Session{
		ID:        issued.ID,
		AccountID: account.ID,
		EditorID:  profile.ID,
		CreatedAt: issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return domain.IssuedToken{}, domain.WrapError(domain.ErrCodeInternal, "store session", err)
	}
	return issued, nil
}

// Authenticate verifies a bearer token and resolves the caller.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.ErrCodeUnauthorized, "invalid or expired token", err)
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.ErrCodeUnauthorized, "invalid or expired token", err)
	}

	if uc.sessions != nil {
		if _, err := uc.sessions.Get(ctx, claims.ID); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return domain.Principal{}, domain.ErrSessionRevoked
			}
			return domain.Principal{}, domain.WrapError(domain.ErrCodeInternal, "load session", err)
		}
	}

	return domain.Principal{
		AccountID: accountID,
		EditorID:  claims.EditorID,
		TokenID:   claims.ID,
		Token:     raw,
	}, nil
}

// Validate re-reads the caller's account and profile so the response reflects current state.
func (uc *UseCase) Validate(ctx context.Context, principal domain.Principal) (*Result, error) {
	account, err := uc.accounts.GetByID(ctx, principal.AccountID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "load account", err)
	}
	if !account.IsActive {
		return nil, domain.ErrUnauthorized
	}

	editor, err := uc.editors.GetByAccountID(ctx, account.ID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrEditorMissing
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "load editor", err)
	}

	return &Result{
		Token:  domain.IssuedToken{Value: principal.Token, ID: principal.TokenID},
		Editor: *editor,
	}, nil
}

// Logout revokes the caller's session.
func (uc *UseCase) Logout(ctx context.Context, principal domain.Principal) error {
	if uc.sessions == nil || principal.TokenID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, principal.TokenID); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "revoke session", err)
	}
	logger.WithRequestID(ctx, uc.logger).Info("session revoked", zap.Int64("account_id", principal.AccountID))
	return nil
}
