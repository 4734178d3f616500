package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/journal/domain"
)

func TestEnsureStaff_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.useCase(Policy{})

	in := StaffInput{Email: " admin@example.org ", Password: "pw", FirstName: "Grace", LastName: "Hopper"}
	first, err := uc.EnsureStaff(ctx, in)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.Account.IsStaff)
	assert.True(t, first.Account.IsActive)
	assert.Equal(t, "admin@example.org", first.Account.Email)
	assert.True(t, strings.HasPrefix(first.Account.Username, "staff-grace-"))

	second, err := uc.EnsureStaff(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	accounts, err := f.store.Accounts().ListActiveByEmail(ctx, "admin@example.org")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestEnsureStaff_WrongPasswordForExistingStaff(t *testing.T) {
	ctx := context.Background()
	uc := newFixture().useCase(Policy{})

	_, err := uc.EnsureStaff(ctx, StaffInput{Email: "admin@example.org", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.EnsureStaff(ctx, StaffInput{Email: "admin@example.org", Password: "other"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestEnsureStaff_EmailHeldByEditor(t *testing.T) {
	f := newFixture()
	f.account(t, "ada-1", "ada@example.org", "pw", true)

	_, err := f.useCase(Policy{}).EnsureStaff(context.Background(), StaffInput{Email: "ada@example.org", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestEnsureStaff_Validation(t *testing.T) {
	uc := newFixture().useCase(Policy{})

	_, err := uc.EnsureStaff(context.Background(), StaffInput{Email: "admin@example.org"})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)

	_, err = uc.EnsureStaff(context.Background(), StaffInput{Email: "admin@example.org", Password: strings.Repeat("x", 80)})
	dErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeInvalid, dErr.Code)
	assert.Contains(t, dErr.Fields, "password")
}

func TestStaffLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.useCase(Policy{})

	staff, err := uc.EnsureStaff(ctx, StaffInput{Email: "admin@example.org", Password: "pw", FirstName: "Grace"})
	require.NoError(t, err)

	res, err := uc.StaffLogin(ctx, "admin@example.org", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token.Value)
	assert.Equal(t, staff.Account.ID, res.Account.ID)

	principal, err := uc.Authenticate(ctx, res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, staff.Account.ID, principal.AccountID)
	assert.Zero(t, principal.EditorID)

	again, err := uc.StaffLogin(ctx, "admin@example.org", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, res.Token.ID, again.Token.ID)
}

func TestStaffLogin_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := f.useCase(Policy{})
	f.account(t, "ada-1", "ada@example.org", "pw", true)
	_, err := uc.EnsureStaff(ctx, StaffInput{Email: "admin@example.org", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.StaffLogin(ctx, "admin@example.org", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.StaffLogin(ctx, "ada@example.org", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.StaffLogin(ctx, "", "pw")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}
