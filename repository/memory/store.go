// Package memory keeps accounts, editor profiles and sessions in process memory.
// It backs STORAGE_DRIVER=memory for local runs and the package tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/repository"
)

// Store is safe for concurrent use. Transactions are serialized with each other.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	accounts map[int64]domain.Account
	profiles map[int64]domain.EditorProfile
	sessions map[string]domain.Session
	nextAcc  int64
	nextProf int64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]domain.Account),
		profiles: make(map[int64]domain.EditorProfile),
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s: s} }

func (s *Store) Editors() repository.EditorRepository { return editorRepo{s: s} }

func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }

// WithinTx hands fn repositories that journal the prior state of every key they write.
// On failure only those keys are restored, so concurrent writes to other rows survive.
// Ids handed out inside a failed transaction are not reused.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{
		accounts: make(map[int64]*domain.Account),
		profiles: make(map[int64]*domain.EditorProfile),
	}
	if err := fn(ctx, txView{s: s, j: j}); err != nil {
		s.rollback(j)
		return err
	}
	return nil
}

type txView struct {
	s *Store
	j *journal
}

func (v txView) Accounts() repository.AccountRepository { return accountRepo{s: v.s, j: v.j} }

func (v txView) Editors() repository.EditorRepository { return editorRepo{s: v.s, j: v.j} }

// journal keeps the first-seen value of each key written in a transaction; nil means
// the key did not exist.
type journal struct {
	accounts map[int64]*domain.Account
	profiles map[int64]*domain.EditorProfile
}

// The note methods must be called with the store lock held.
func (j *journal) noteAccount(s *Store, id int64) {
	if j == nil {
		return
	}
	if _, seen := j.accounts[id]; seen {
		return
	}
	var before *domain.Account
	if v, ok := s.accounts[id]; ok {
		before = &v
	}
	j.accounts[id] = before
}

func (j *journal) noteProfile(s *Store, id int64) {
	if j == nil {
		return
	}
	if _, seen := j.profiles[id]; seen {
		return
	}
	var before *domain.EditorProfile
	if v, ok := s.profiles[id]; ok {
		before = &v
	}
	j.profiles[id] = before
}

func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, before := range j.accounts {
		if before == nil {
			delete(s.accounts, id)
			continue
		}
		s.accounts[id] = *before
	}
	for id, before := range j.profiles {
		if before == nil {
			delete(s.profiles, id)
			continue
		}
		s.profiles[id] = *before
	}
}

type accountRepo struct {
	s *Store
	j *journal
}

func (r accountRepo) Create(_ context.Context, account *domain.Account) error {
	if account == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if existing.Username == account.Username {
			return domain.NewError(domain.ErrCodeConflict, "account already exists")
		}
	}
	r.s.nextAcc++
	account.ID = r.s.nextAcc
	r.j.noteAccount(r.s, account.ID)
	account.DateJoined = r.s.now()
	r.s.accounts[account.ID] = *account
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r accountRepo) ListActiveByEmail(_ context.Context, email string) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Account
	for _, account := range r.s.accounts {
		if account.Email == email && account.IsActive {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r accountRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, account := range r.s.accounts {
		if account.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type editorRepo struct {
	s *Store
	j *journal
}

func (r editorRepo) Create(_ context.Context, profile *domain.EditorProfile) error {
	if profile == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[profile.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}
	for _, existing := range r.s.profiles {
		if existing.AccountID == profile.AccountID {
			return domain.NewError(domain.ErrCodeConflict, "account already has an editor profile")
		}
	}
	r.s.nextProf++
	profile.ID = r.s.nextProf
	r.j.noteProfile(r.s, profile.ID)
	profile.IsApproved = false
	profile.DateJoined = r.s.now()
	r.s.profiles[profile.ID] = *profile
	return nil
}

func (r editorRepo) GetByID(_ context.Context, id int64) (*domain.Editor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profile, ok := r.s.profiles[id]
	if !ok {
		return nil, domain.ErrEditorNotFound
	}
	return r.join(profile), nil
}

func (r editorRepo) GetByAccountID(_ context.Context, accountID int64) (*domain.Editor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, profile := range r.s.profiles {
		if profile.AccountID == accountID {
			return r.join(profile), nil
		}
	}
	return nil, domain.ErrEditorNotFound
}

func (r editorRepo) List(_ context.Context, filter repository.EditorFilter) ([]domain.Editor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]int64, 0, len(r.s.profiles))
	for id, profile := range r.s.profiles {
		if filter.Approved != nil && profile.IsApproved != *filter.Approved {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if filter.Offset > 0 {
		if filter.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(ids) > filter.Limit {
		ids = ids[:filter.Limit]
	}

	out := make([]domain.Editor, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.join(r.s.profiles[id]))
	}
	return out, nil
}

func (r editorRepo) Approve(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	profile, ok := r.s.profiles[id]
	if !ok || profile.IsApproved {
		return false, nil
	}
	r.j.noteProfile(r.s, id)
	profile.IsApproved = true
	r.s.profiles[id] = profile
	return true, nil
}

func (r editorRepo) UpdateMetadata(_ context.Context, id int64, patch domain.ProfilePatch) (*domain.Editor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	profile, ok := r.s.profiles[id]
	if !ok {
		return nil, domain.ErrEditorNotFound
	}
	r.j.noteProfile(r.s, id)
	patch.Apply(&profile)
	r.s.profiles[id] = profile
	return r.join(profile), nil
}

// join must be called with the store lock held.
func (r editorRepo) join(profile domain.EditorProfile) *domain.Editor {
	return &domain.Editor{
		Profile: profile,
		Account: r.s.accounts[profile.AccountID],
	}
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.RLock()
	session, ok := r.s.sessions[id]
	r.s.mu.RUnlock()

	if !ok || session.IsExpired(r.s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r sessionRepo) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.s.now()
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

var (
	_ repository.TxManager         = (*Store)(nil)
	_ repository.Tx                = (*Store)(nil)
	_ repository.Tx                = txView{}
	_ repository.SessionRepository = sessionRepo{}
)
