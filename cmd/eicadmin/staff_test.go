package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/internal/token"
	"github.com/fastygo/journal/repository/memory"
	authUC "github.com/fastygo/journal/usecase/auth"
	editorUC "github.com/fastygo/journal/usecase/editor"
)

func newAuth(mem *memory.Store) *authUC.UseCase {
	return authUC.New(mem.Accounts(), mem.Editors(), mem.Sessions(), password.NewHasher(4),
		token.NewService("secret", "eic-test", time.Hour), authUC.Policy{}, nil)
}

func TestStaffTokenIssuesApprovingToken(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	auth := newAuth(mem)

	res, err := staffToken(ctx, auth, authUC.StaffInput{
		Email:     " admin@example.org ",
		Password:  "pw",
		FirstName: "Grace",
		LastName:  "Hopper",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Account.IsStaff)
	assert.Contains(t, res.Account.Username, "staff-grace-")
	require.NotEmpty(t, res.Token.Value)

	principal, err := auth.Authenticate(ctx, res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, principal.AccountID)

	allowed, err := editorUC.StaffCapability{Accounts: mem.Accounts()}.CanApprove(ctx, principal)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestStaffTokenReissuesForExistingAccount(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	auth := newAuth(mem)
	in := authUC.StaffInput{Email: "admin@example.org", Password: "pw"}

	first, err := staffToken(ctx, auth, in)
	require.NoError(t, err)
	second, err := staffToken(ctx, auth, in)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.NotEqual(t, first.Token.Value, second.Token.Value)

	_, err = staffToken(ctx, auth, authUC.StaffInput{Email: "admin@example.org", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestStaffTokenRequiresCredentials(t *testing.T) {
	_, err := staffToken(context.Background(), newAuth(memory.NewStore()), authUC.StaffInput{Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}
