package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/media"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository"
	"github.com/fastygo/journal/usecase"
)

// Policy holds the registration rules that are configurable per deployment.
type Policy struct {
	RejectDuplicateEmail bool
}

// MediaStore saves uploads and returns their storage keys.
type MediaStore interface {
	Save(ctx context.Context, folder string, file media.File) (string, error)
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	// Profile carries the optional metadata; identity and approval fields are ignored.
	Profile        domain.EditorProfile
	ProfilePicture *media.File
	CV             *media.File
}

type Registration struct {
	tx       repository.TxManager
	accounts repository.AccountRepository
	hasher   usecase.PasswordHasher
	media    MediaStore
	policy   Policy
	logger   *zap.Logger
}

func NewRegistration(
	tx repository.TxManager,
	accounts repository.AccountRepository,
	hasher usecase.PasswordHasher,
	store MediaStore,
	policy Policy,
	log *zap.Logger,
) *Registration {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registration{
		tx:       tx,
		accounts: accounts,
		hasher:   hasher,
		media:    store,
		policy:   policy,
		logger:   log,
	}
}

// Register creates an account and its pending editor profile atomically.
func (r *Registration) Register(ctx context.Context, in RegisterInput) (*domain.Editor, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, domain.ErrInvalidPayload
	}

	if r.policy.RejectDuplicateEmail {
		exists, err := r.accounts.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "check email", err)
		}
		if exists {
			return nil, domain.ErrDuplicateEmail
		}
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, domain.NewValidationError(map[string]string{"password": "Ensure this field has no more than 72 bytes."})
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	profile := in.Profile
	if profile.ProfilePicture, err = r.upload(ctx, domain.FolderProfilePictures, in.ProfilePicture); err != nil {
		return nil, err
	}
	if profile.CV, err = r.upload(ctx, domain.FolderCVs, in.CV); err != nil {
		return nil, err
	}

	account := domain.Account{
		Username:     NewUsername(in.FirstName),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}

	err = r.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Accounts().Create(ctx, &account); err != nil {
			return err
		}
		profile.ID = 0
		profile.AccountID = account.ID
		profile.IsActive = true
		profile.IsApproved = false
		return tx.Editors().Create(ctx, &profile)
	})
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "register editor", err)
	}

	logger.WithRequestID(ctx, r.logger).Info("editor registered",
		zap.Int64("eic_id", profile.ID),
		zap.String("email", account.Email))

	return &domain.Editor{Profile: profile, Account: account}, nil
}

func (r *Registration) upload(ctx context.Context, folder string, file *media.File) (string, error) {
	if file == nil {
		return "", nil
	}
	if r.media == nil {
		return "", domain.NewError(domain.ErrCodeInvalid, "file uploads are not enabled")
	}
	key, err := r.media.Save(ctx, folder, *file)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "store upload", err)
	}
	return key, nil
}

// NewUsername derives a unique login handle from the first name.
func NewUsername(firstName string) string {
	base := strings.ToLower(strings.Join(strings.Fields(firstName), ""))
	if base == "" {
		base = "eic"
	}
	if runes := []rune(base); len(runes) > 100 {
		base = string(runes[:100])
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return base + "-" + suffix
}
