package main

import (
	"context"

	"github.com/fastygo/journal/domain"
	authUC "github.com/fastygo/journal/usecase/auth"
)

type staffAuth interface {
	EnsureStaff(ctx context.Context, in authUC.StaffInput) (*authUC.StaffResult, error)
	IssueSession(ctx context.Context, account domain.Account, profile domain.EditorProfile) (domain.IssuedToken, error)
}

// staffToken creates the staff account on first use, or checks the password of the
// existing one, and signs a new session token for it.
func staffToken(ctx context.Context, auth staffAuth, in authUC.StaffInput) (*authUC.StaffResult, error) {
	res, err := auth.EnsureStaff(ctx, in)
	if err != nil {
		return nil, err
	}
	issued, err := auth.IssueSession(ctx, res.Account, domain.EditorProfile{})
	if err != nil {
		return nil, err
	}
	res.Token = issued
	return res, nil
}
