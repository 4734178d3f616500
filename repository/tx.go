package repository

import "context"

// Tx exposes repositories bound to a single database transaction.
type Tx interface {
	Accounts() AccountRepository
	Editors() EditorRepository
}

// TxManager runs fn atomically: every write made through tx commits or none does.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
