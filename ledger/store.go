/*
store.go - Persistence interfaces for the ledger

PURPOSE:
  Defines the boundary between ledger operations and the database.
  Every ledger operation runs inside exactly one unit-of-work obtained
  from Store.WithTx; the Tx handed to the callback is the only way to
  read or write inside it.

KEY INTERFACES:
  Store: Opens units-of-work (one database transaction each)
  Tx:    Typed row operations scoped to one unit-of-work

UNIT-OF-WORK CONTRACT:
  - The connection is acquired when WithTx starts.
  - fn returns nil  -> commit.
  - fn returns error or panics -> rollback, error is returned unchanged.
  - The connection is released before WithTx returns.
  A unit-of-work never spans more than one API request.

NOT FOUND:
  Single-row lookups and mutations return ErrNotFound (unwrapped) when no
  row matches. The ledger turns it into a NotFoundError naming the entity.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite and PostgreSQL via database/sql
*/
package ledger

import (
	"context"
	"time"
)

// Store opens units-of-work against the persistence layer.
type Store interface {
	// WithTx runs fn inside one database transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of row operations available inside a unit-of-work.
type Tx interface {
	AccountTx
	CycleTx
	TransactionTx
	CheckpointTx
}

// AccountTx persists accounts.
type AccountTx interface {
	InsertAccount(ctx context.Context, a Account) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	// FindAccountByNumber returns the lowest-id account with the number.
	FindAccountByNumber(ctx context.Context, number string) (Account, error)
	// UpdateAccount overwrites every mutable column of the row with a.ID.
	UpdateAccount(ctx context.Context, a Account) error
	DeleteAccount(ctx context.Context, id int64) error
}

// CycleTx persists cycles.
type CycleTx interface {
	InsertCycle(ctx context.Context, c Cycle) (Cycle, error)
	ListCycles(ctx context.Context) ([]Cycle, error)
	GetCycle(ctx context.Context, id int64) (Cycle, error)
	UpdateCycle(ctx context.Context, c Cycle) error
	DeleteCycle(ctx context.Context, id int64) error
	// FindCycleContaining returns the lowest-id cycle with start <= at <= end.
	FindCycleContaining(ctx context.Context, at time.Time) (Cycle, error)
}

// TransactionTx persists transactions.
type TransactionTx interface {
	InsertTransaction(ctx context.Context, t Transaction) (Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	// UpdateTransaction overwrites every mutable column and stamps updated_at.
	UpdateTransaction(ctx context.Context, t Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
}

// CheckpointTx persists email checkpoints keyed on folder.
type CheckpointTx interface {
	GetCheckpoint(ctx context.Context, folder string) (EmailCheckpoint, error)
	// UpsertCheckpoint inserts the row or overwrites last_seen_uid of the
	// existing row for cp.Folder. LoadTime and LoadBy of an existing row are kept.
	UpsertCheckpoint(ctx context.Context, cp EmailCheckpoint) (EmailCheckpoint, error)
	ListCheckpoints(ctx context.Context) ([]EmailCheckpoint, error)
	DeleteCheckpoint(ctx context.Context, folder string) error
}
