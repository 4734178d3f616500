package editor

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository"
)

type ApprovalOutcome int

const (
	Approved ApprovalOutcome = iota + 1
	AlreadyApproved
)

// Capability decides whether principal may approve editors.
type Capability interface {
	CanApprove(ctx context.Context, principal domain.Principal) (bool, error)
}

// StaffCapability grants approval to active staff accounts.
type StaffCapability struct {
	Accounts repository.AccountRepository
}

func (c StaffCapability) CanApprove(ctx context.Context, principal domain.Principal) (bool, error) {
	account, err := c.Accounts.GetByID(ctx, principal.AccountID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.IsActive && account.IsStaff, nil
}

type Approval struct {
	editors    repository.EditorRepository
	capability Capability
	logger     *zap.Logger
}

func NewApproval(editors repository.EditorRepository, capability Capability, log *zap.Logger) *Approval {
	if log == nil {
		log = zap.NewNop()
	}
	return &Approval{editors: editors, capability: capability, logger: log}
}

// Approve moves a pending profile to approved. Approving twice is a no-op.
func (a *Approval) Approve(ctx context.Context, principal domain.Principal, editorID int64) (ApprovalOutcome, error) {
	if a.capability == nil {
		return 0, domain.ErrForbidden
	}
	allowed, err := a.capability.CanApprove(ctx, principal)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "check approval capability", err)
	}
	if !allowed {
		return 0, domain.ErrForbidden
	}

	current, err := a.editors.GetByID(ctx, editorID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return 0, domain.ErrEditorNotFound
		}
		return 0, domain.WrapError(domain.ErrCodeInternal, "load editor", err)
	}
	if current.Profile.IsApproved {
		return AlreadyApproved, nil
	}

	changed, err := a.editors.Approve(ctx, editorID)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "approve editor", err)
	}
	if !changed {
		return AlreadyApproved, nil
	}

	logger.WithRequestID(ctx, a.logger).Info("editor approved",
		zap.Int64("eic_id", editorID),
		zap.String("email", current.Account.Email),
		zap.Int64("approved_by", principal.AccountID))
	return Approved, nil
}
