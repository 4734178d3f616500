package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/journal/repository"
)

// Beginner starts transactions; *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txManager struct {
	db Beginner
}

// NewTxManager wraps a pool so use cases can group writes atomically.
func NewTxManager(db Beginner) repository.TxManager {
	return &txManager{db: db}
}

// WithinTx commits when fn succeeds and rolls back on error or panic. Panics are rethrown.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(ctx, pgTx{tx: tx})
	return err
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Accounts() repository.AccountRepository {
	return NewAccountRepository(t.tx)
}

func (t pgTx) Editors() repository.EditorRepository {
	return NewEditorRepository(t.tx)
}
