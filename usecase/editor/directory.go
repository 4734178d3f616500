package editor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/media"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository"
	"github.com/fastygo/journal/usecase"
)

type UpdateInput struct {
	Patch domain.ProfilePatch
	// Replace requires the full update surface, as a PUT does.
	Replace        bool
	ProfilePicture *media.File
	CV             *media.File
}

type UpdateResult struct {
	Editor *domain.Editor
	// Queued is set when the write was buffered for a later retry.
	Queued bool
}

// Directory serves the public listing, detail and self-service update of profiles.
type Directory struct {
	editors repository.EditorRepository
	media   MediaStore
	buffer  usecase.OperationBuffer
	logger  *zap.Logger
}

func NewDirectory(editors repository.EditorRepository, store MediaStore, buffer usecase.OperationBuffer, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{editors: editors, media: store, buffer: buffer, logger: log}
}

func (d *Directory) List(ctx context.Context, filter repository.EditorFilter) ([]domain.Editor, error) {
	editors, err := d.editors.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "list editors", err)
	}
	return editors, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (*domain.Editor, error) {
	editor, err := d.editors.GetByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrEditorNotFound
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "load editor", err)
	}
	return editor, nil
}

// Update applies the patch. When storage is unreachable the patch is buffered and the
// result carries the optimistic state with Queued set.
func (d *Directory) Update(ctx context.Context, id int64, in UpdateInput) (*UpdateResult, error) {
	if in.Replace && (in.Patch.Institution == nil || strings.TrimSpace(*in.Patch.Institution) == "") {
		return nil, domain.NewValidationError(map[string]string{"institution": "This field is required."})
	}
	if in.Patch.Institution != nil && strings.TrimSpace(*in.Patch.Institution) == "" {
		return nil, domain.NewValidationError(map[string]string{"institution": "This field may not be blank."})
	}

	// An unreachable store is not fatal here: the write below either succeeds or is
	// buffered against a view built from the patch alone.
	current, readErr := d.editors.GetByID(ctx, id)
	if readErr != nil {
		if domain.IsDomainError(readErr, domain.ErrCodeNotFound) {
			return nil, domain.ErrEditorNotFound
		}
		if _, ok := domain.AsDomainError(readErr); ok {
			return nil, readErr
		}
		current = &domain.Editor{Profile: domain.EditorProfile{ID: id}}
	}

	patch := in.Patch
	if in.ProfilePicture != nil {
		key, err := d.upload(ctx, domain.FolderProfilePictures, *in.ProfilePicture)
		if err != nil {
			return nil, err
		}
		patch.ProfilePicture = &key
	}
	if in.CV != nil {
		key, err := d.upload(ctx, domain.FolderCVs, *in.CV)
		if err != nil {
			return nil, err
		}
		patch.CV = &key
	}
	if patch.IsEmpty() {
		if readErr != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "load editor", readErr)
		}
		return &UpdateResult{Editor: current}, nil
	}

	log := logger.WithRequestID(ctx, d.logger)
	updated, err := d.editors.UpdateMetadata(ctx, id, patch)
	if err == nil {
		log.Info("editor profile updated", zap.Int64("eic_id", id), zap.String("email", updated.Account.Email))
		return &UpdateResult{Editor: updated}, nil
	}
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, domain.ErrEditorNotFound
	}
	if _, ok := domain.AsDomainError(err); ok {
		return nil, err
	}
	if d.buffer == nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "update editor", err)
	}

	if bufErr := d.buffer.BufferProfileUpdate(ctx, id, patch); bufErr != nil {
		log.Error("failed to buffer profile update", zap.Int64("eic_id", id), zap.Error(bufErr))
		return nil, domain.WrapError(domain.ErrCodeInternal, "update editor", err)
	}
	log.Warn("profile update buffered due to repository error", zap.Int64("eic_id", id), zap.Error(err))

	optimistic := *current
	patch.Apply(&optimistic.Profile)
	return &UpdateResult{Editor: &optimistic, Queued: true}, nil
}

func (d *Directory) upload(ctx context.Context, folder string, file media.File) (string, error) {
	if d.media == nil {
		return "", domain.NewError(domain.ErrCodeInvalid, "file uploads are not enabled")
	}
	key, err := d.media.Save(ctx, folder, file)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "store upload", err)
	}
	return key, nil
}
