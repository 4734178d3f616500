package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/repository"
)

func seed(t *testing.T, s *Store, username string) (domain.Account, domain.EditorProfile) {
	t.Helper()
	ctx := context.Background()
	account := &domain.Account{Username: username, Email: username + "@example.org", IsActive: true}
	require.NoError(t, s.Accounts().Create(ctx, account))
	profile := &domain.EditorProfile{AccountID: account.ID, Institution: "MIT", IsApproved: true}
	require.NoError(t, s.Editors().Create(ctx, profile))
	return *account, *profile
}

func TestCreateForcesPendingAndJoins(t *testing.T) {
	s := NewStore()
	account, profile := seed(t, s, "ada")
	assert.False(t, profile.IsApproved)

	editor, err := s.Editors().GetByAccountID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, editor.Profile.ID)
	assert.Equal(t, "ada@example.org", editor.Account.Email)
}

func TestUniqueConstraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account, _ := seed(t, s, "ada")

	err := s.Accounts().Create(ctx, &domain.Account{Username: "ada"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	err = s.Editors().Create(ctx, &domain.EditorProfile{AccountID: account.ID})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	err = s.Editors().Create(ctx, &domain.EditorProfile{AccountID: 999})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	var ghostID int64
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		account := &domain.Account{Username: "ghost", Email: "ghost@example.org", IsActive: true}
		require.NoError(t, tx.Accounts().Create(ctx, account))
		ghostID = account.ID
		return boom
	})
	assert.ErrorIs(t, err, boom)

	accounts, err := s.Accounts().ListActiveByEmail(ctx, "ghost@example.org")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	account, _ := seed(t, s, "ada")
	assert.NotEqual(t, ghostID, account.ID)
}

func TestWithinTxRollbackKeepsOutsideWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, outside := seed(t, s, "ada")
	_, inside := seed(t, s, "grace")

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Editors().UpdateMetadata(ctx, inside.ID, domain.ProfilePatch{Country: strPtr("UK")})
		require.NoError(t, err)

		changed, err := s.Editors().Approve(ctx, outside.ID)
		require.NoError(t, err)
		require.True(t, changed)

		account := &domain.Account{Username: "ghost", Email: "ghost@example.org", IsActive: true}
		require.NoError(t, tx.Accounts().Create(ctx, account))
		profile := &domain.EditorProfile{AccountID: account.ID, Institution: "Nowhere"}
		require.NoError(t, tx.Editors().Create(ctx, profile))
		return errors.New("boom")
	})
	require.Error(t, err)

	approved, err := s.Editors().GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.True(t, approved.Profile.IsApproved)

	reverted, err := s.Editors().GetByID(ctx, inside.ID)
	require.NoError(t, err)
	assert.Empty(t, reverted.Profile.Country)

	all, err := s.Editors().List(ctx, repository.EditorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, p1 := seed(t, s, "a")
	seed(t, s, "b")
	_, p3 := seed(t, s, "c")

	changed, err := s.Editors().Approve(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Editors().Approve(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	approved := true
	list, err := s.Editors().List(ctx, repository.EditorFilter{Approved: &approved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p1.ID, list[0].Profile.ID)

	list, err = s.Editors().List(ctx, repository.EditorFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEqual(t, p3.ID, list[0].Profile.ID)

	list, err = s.Editors().List(ctx, repository.EditorFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionsExpire(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Sessions().Save(ctx, &domain.Session{ID: "jti", ExpiresAt: now.Add(time.Minute)}))
	_, err := s.Sessions().Get(ctx, "jti")
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = s.Sessions().Get(ctx, "jti")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func strPtr(v string) *string { return &v }
