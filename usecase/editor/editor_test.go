package editor

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/media"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/repository"
	"github.com/fastygo/journal/repository/memory"
)

type mockMedia struct {
	mock.Mock
}

func (m *mockMedia) Save(ctx context.Context, folder string, file media.File) (string, error) {
	args := m.Called(ctx, folder, file.Filename)
	return args.String(0), args.Error(1)
}

type mockBuffer struct {
	mock.Mock
}

func (m *mockBuffer) BufferProfileUpdate(ctx context.Context, editorID int64, patch domain.ProfilePatch) error {
	return m.Called(ctx, editorID, patch).Error(0)
}

type failingEditors struct {
	repository.EditorRepository
	createErr error
	getErr    error
	updateErr error
}

func (f failingEditors) GetByID(ctx context.Context, id int64) (*domain.Editor, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.EditorRepository.GetByID(ctx, id)
}

func (f failingEditors) Create(ctx context.Context, profile *domain.EditorProfile) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.EditorRepository.Create(ctx, profile)
}

func (f failingEditors) UpdateMetadata(ctx context.Context, id int64, patch domain.ProfilePatch) (*domain.Editor, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.EditorRepository.UpdateMetadata(ctx, id, patch)
}

type failingTx struct {
	repository.Tx
	err error
}

func (t failingTx) Editors() repository.EditorRepository {
	return failingEditors{EditorRepository: t.Tx.Editors(), createErr: t.err}
}

type failingTxManager struct {
	store *memory.Store
	err   error
}

func (m failingTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return m.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, failingTx{Tx: tx, err: m.err})
	})
}

func strPtr(s string) *string { return &s }

func newRegistration(store *memory.Store, policy Policy, mediaStore MediaStore) *Registration {
	return NewRegistration(store, store.Accounts(), password.NewHasher(bcrypt.MinCost), mediaStore, policy, nil)
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "analytical",
		Profile:   domain.EditorProfile{Institution: "Royal Society", Country: "UK"},
	}
}

func seedStaff(t *testing.T, store *memory.Store, staff bool) domain.Principal {
	t.Helper()
	account := domain.Account{Username: "admin", Email: "admin@example.org", IsActive: true, IsStaff: staff}
	require.NoError(t, store.Accounts().Create(context.Background(), &account))
	return domain.Principal{AccountID: account.ID}
}

func TestRegistration_ForcesPendingApproval(t *testing.T) {
	store := memory.NewStore()
	in := registerInput("ada@example.org")
	in.Profile.IsApproved = true

	editor, err := newRegistration(store, Policy{}, nil).Register(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, editor.Profile.IsApproved)
	assert.True(t, editor.Profile.IsActive)

	stored, err := store.Editors().GetByID(context.Background(), editor.Profile.ID)
	require.NoError(t, err)
	assert.False(t, stored.Profile.IsApproved)
	assert.Equal(t, "Royal Society", stored.Profile.Institution)
	assert.Equal(t, "ada@example.org", stored.Account.Email)
	assert.NotEqual(t, "analytical", stored.Account.PasswordHash)
}

func TestRegistration_DuplicateEmailPolicy(t *testing.T) {
	ctx := context.Background()

	lenient := memory.NewStore()
	reg := newRegistration(lenient, Policy{}, nil)
	first, err := reg.Register(ctx, registerInput("dup@example.org"))
	require.NoError(t, err)
	second, err := reg.Register(ctx, registerInput("dup@example.org"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Account.Username, second.Account.Username)

	strict := memory.NewStore()
	reg = newRegistration(strict, Policy{RejectDuplicateEmail: true}, nil)
	_, err = reg.Register(ctx, registerInput("dup@example.org"))
	require.NoError(t, err)
	_, err = reg.Register(ctx, registerInput("dup@example.org"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestRegistration_PasswordTooLong(t *testing.T) {
	store := memory.NewStore()
	in := registerInput("long@example.org")
	in.Password = strings.Repeat("p", 100)

	_, err := newRegistration(store, Policy{}, nil).Register(context.Background(), in)
	dErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeInvalid, dErr.Code)
	assert.Contains(t, dErr.Fields, "password")

	exists, err := store.Accounts().ExistsByEmail(context.Background(), "long@example.org")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegistration_MissingFields(t *testing.T) {
	in := registerInput("")
	_, err := newRegistration(memory.NewStore(), Policy{}, nil).Register(context.Background(), in)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestRegistration_RollsBackAccountWhenProfileFails(t *testing.T) {
	store := memory.NewStore()
	tx := failingTxManager{store: store, err: errors.New("disk full")}
	reg := NewRegistration(tx, store.Accounts(), password.NewHasher(bcrypt.MinCost), nil, Policy{}, nil)

	_, err := reg.Register(context.Background(), registerInput("ada@example.org"))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))

	exists, err := store.Accounts().ExistsByEmail(context.Background(), "ada@example.org")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegistration_StoresUploads(t *testing.T) {
	store := memory.NewStore()
	m := &mockMedia{}
	m.On("Save", mock.Anything, domain.FolderProfilePictures, "me.png").Return("eic_profile_pictures/k.png", nil).Once()
	m.On("Save", mock.Anything, domain.FolderCVs, "cv.pdf").Return("eic_cvs/k.pdf", nil).Once()

	in := registerInput("ada@example.org")
	in.ProfilePicture = &media.File{Filename: "me.png", Body: strings.NewReader("x")}
	in.CV = &media.File{Filename: "cv.pdf", Body: strings.NewReader("y")}

	editor, err := newRegistration(store, Policy{}, m).Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "eic_profile_pictures/k.png", editor.Profile.ProfilePicture)
	assert.Equal(t, "eic_cvs/k.pdf", editor.Profile.CV)
	m.AssertExpectations(t)
}

func TestRegistration_UploadWithoutStorage(t *testing.T) {
	in := registerInput("ada@example.org")
	in.CV = &media.File{Filename: "cv.pdf", Body: strings.NewReader("y")}

	_, err := newRegistration(memory.NewStore(), Policy{}, nil).Register(context.Background(), in)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestNewUsername(t *testing.T) {
	pattern := regexp.MustCompile(`^mary-ann-[0-9a-f]{8}$`)
	assert.Regexp(t, pattern, NewUsername(" Mary-Ann "))
	assert.Regexp(t, regexp.MustCompile(`^eic-[0-9a-f]{8}$`), NewUsername("  "))
	assert.NotEqual(t, NewUsername("Ada"), NewUsername("Ada"))
	assert.LessOrEqual(t, len(NewUsername(strings.Repeat("a", 300))), 150)
}

func TestApproval_Approve(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	staff := seedStaff(t, store, true)
	editor, err := newRegistration(store, Policy{}, nil).Register(ctx, registerInput("ada@example.org"))
	require.NoError(t, err)

	approval := NewApproval(store.Editors(), StaffCapability{Accounts: store.Accounts()}, nil)

	outcome, err := approval.Approve(ctx, staff, editor.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, Approved, outcome)

	outcome, err = approval.Approve(ctx, staff, editor.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, AlreadyApproved, outcome)

	stored, err := store.Editors().GetByID(ctx, editor.Profile.ID)
	require.NoError(t, err)
	assert.True(t, stored.Profile.IsApproved)
}

func TestApproval_MissingEditor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	staff := seedStaff(t, store, true)
	editor, err := newRegistration(store, Policy{}, nil).Register(ctx, registerInput("ada@example.org"))
	require.NoError(t, err)

	approval := NewApproval(store.Editors(), StaffCapability{Accounts: store.Accounts()}, nil)
	_, err = approval.Approve(ctx, staff, editor.Profile.ID+100)
	assert.ErrorIs(t, err, domain.ErrEditorNotFound)

	stored, err := store.Editors().GetByID(ctx, editor.Profile.ID)
	require.NoError(t, err)
	assert.False(t, stored.Profile.IsApproved)
}

func TestApproval_RequiresStaff(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	nonStaff := seedStaff(t, store, false)
	editor, err := newRegistration(store, Policy{}, nil).Register(ctx, registerInput("ada@example.org"))
	require.NoError(t, err)

	approval := NewApproval(store.Editors(), StaffCapability{Accounts: store.Accounts()}, nil)
	_, err = approval.Approve(ctx, nonStaff, editor.Profile.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = approval.Approve(ctx, domain.Principal{AccountID: 999}, editor.Profile.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = NewApproval(store.Editors(), nil, nil).Approve(ctx, nonStaff, editor.Profile.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func seedEditors(t *testing.T, store *memory.Store, n int) []*domain.Editor {
	t.Helper()
	reg := newRegistration(store, Policy{}, nil)
	out := make([]*domain.Editor, 0, n)
	for i := 0; i < n; i++ {
		editor, err := reg.Register(context.Background(), registerInput("ed@example.org"))
		require.NoError(t, err)
		out = append(out, editor)
	}
	return out
}

func TestDirectory_ListAndGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	editors := seedEditors(t, store, 3)
	_, err := store.Editors().Approve(ctx, editors[1].Profile.ID)
	require.NoError(t, err)

	dir := NewDirectory(store.Editors(), nil, nil, nil)

	all, err := dir.List(ctx, repository.EditorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	approved := true
	onlyApproved, err := dir.List(ctx, repository.EditorFilter{Approved: &approved})
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	assert.Equal(t, editors[1].Profile.ID, onlyApproved[0].Profile.ID)

	got, err := dir.Get(ctx, editors[0].Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "ed@example.org", got.Account.Email)

	_, err = dir.Get(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrEditorNotFound)
}

func TestDirectory_UpdatePatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]
	dir := NewDirectory(store.Editors(), nil, nil, nil)

	res, err := dir.Update(ctx, editor.Profile.ID, UpdateInput{Patch: domain.ProfilePatch{Country: strPtr("France")}})
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, "France", res.Editor.Profile.Country)
	assert.Equal(t, "Royal Society", res.Editor.Profile.Institution)
	assert.False(t, res.Editor.Profile.IsApproved)
}

func TestDirectory_UpdateReplaceRequiresInstitution(t *testing.T) {
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]
	dir := NewDirectory(store.Editors(), nil, nil, nil)

	_, err := dir.Update(context.Background(), editor.Profile.ID, UpdateInput{
		Replace: true,
		Patch:   domain.ProfilePatch{Country: strPtr("France")},
	})
	dErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeInvalid, dErr.Code)
	assert.Contains(t, dErr.Fields, "institution")
}

func TestDirectory_UpdateMissing(t *testing.T) {
	dir := NewDirectory(memory.NewStore().Editors(), nil, nil, nil)
	_, err := dir.Update(context.Background(), 1, UpdateInput{Patch: domain.ProfilePatch{Country: strPtr("X")}})
	assert.ErrorIs(t, err, domain.ErrEditorNotFound)
}

func TestDirectory_UpdateBuffersOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]

	patch := domain.ProfilePatch{EditorBio: strPtr("Mathematician")}
	buf := &mockBuffer{}
	buf.On("BufferProfileUpdate", mock.Anything, editor.Profile.ID, patch).Return(nil).Once()

	repo := failingEditors{EditorRepository: store.Editors(), updateErr: errors.New("connection refused")}
	res, err := NewDirectory(repo, nil, buf, nil).Update(ctx, editor.Profile.ID, UpdateInput{Patch: patch})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Equal(t, "Mathematician", res.Editor.Profile.EditorBio)
	buf.AssertExpectations(t)

	stored, err := store.Editors().GetByID(ctx, editor.Profile.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Profile.EditorBio)
}

func TestDirectory_UpdateBuffersWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]

	patch := domain.ProfilePatch{EditorBio: strPtr("Mathematician")}
	buf := &mockBuffer{}
	buf.On("BufferProfileUpdate", mock.Anything, editor.Profile.ID, patch).Return(nil).Once()

	down := errors.New("connection refused")
	repo := failingEditors{EditorRepository: store.Editors(), getErr: down, updateErr: down}
	res, err := NewDirectory(repo, nil, buf, nil).Update(ctx, editor.Profile.ID, UpdateInput{Patch: patch})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Equal(t, editor.Profile.ID, res.Editor.Profile.ID)
	assert.Equal(t, "Mathematician", res.Editor.Profile.EditorBio)
	buf.AssertExpectations(t)
}

func TestDirectory_EmptyUpdateWhenStoreIsDown(t *testing.T) {
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]

	buf := &mockBuffer{}
	repo := failingEditors{EditorRepository: store.Editors(), getErr: errors.New("connection refused")}
	_, err := NewDirectory(repo, nil, buf, nil).Update(context.Background(), editor.Profile.ID, UpdateInput{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	buf.AssertNotCalled(t, "BufferProfileUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectory_UpdateFailsWhenBufferFails(t *testing.T) {
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]

	buf := &mockBuffer{}
	buf.On("BufferProfileUpdate", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bolt closed")).Once()

	repo := failingEditors{EditorRepository: store.Editors(), updateErr: errors.New("connection refused")}
	_, err := NewDirectory(repo, nil, buf, nil).Update(context.Background(), editor.Profile.ID, UpdateInput{
		Patch: domain.ProfilePatch{Country: strPtr("X")},
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestDirectory_UpdateStoresFiles(t *testing.T) {
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]
	m := &mockMedia{}
	m.On("Save", mock.Anything, domain.FolderCVs, "cv.pdf").Return("eic_cvs/new.pdf", nil).Once()

	res, err := NewDirectory(store.Editors(), m, nil, nil).Update(context.Background(), editor.Profile.ID, UpdateInput{
		CV: &media.File{Filename: "cv.pdf", Body: strings.NewReader("pdf")},
	})
	require.NoError(t, err)
	assert.Equal(t, "eic_cvs/new.pdf", res.Editor.Profile.CV)
	m.AssertExpectations(t)
}

func TestDirectory_EmptyPatchReturnsCurrent(t *testing.T) {
	store := memory.NewStore()
	editor := seedEditors(t, store, 1)[0]

	res, err := NewDirectory(store.Editors(), nil, nil, nil).Update(context.Background(), editor.Profile.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, editor.Profile.ID, res.Editor.Profile.ID)
}
