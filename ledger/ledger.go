/*
ledger.go - Data access layer for accounts, cycles and transactions

PURPOSE:
  The Ledger is what the API surface calls. Each method validates its
  input, then performs its reads and writes inside exactly one
  unit-of-work (Store.WithTx). A method either commits everything it did
  or nothing.

UPDATE SEMANTICS:
  Updates are full replaces. Every field of the incoming value overwrites
  the stored one, so a nil optional clears the column. Identity and the
  load_time/load_by audit pair are never rewritten.

DELETE SEMANTICS:
  Deletes are hard deletes. Deleting an account or cycle that is still
  referenced by a transaction fails with ErrConstraint and changes nothing.
  Transaction.IsDeleted is unrelated to DeleteTransaction.

SEE ALSO:
  - checkpoint.go: Email checkpoint protocol
  - cycle.go: Cycle resolution by date
  - store.go: Store/Tx interfaces
*/
package ledger

import (
	"context"
	"errors"
)

// Ledger executes typed operations against a Store.
type Ledger struct {
	store Store
}

// New creates a ledger backed by store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// unitOfWork runs fn in one transaction. Not-found and validation errors
// pass through; anything else is wrapped as a StoreError.
func (l *Ledger) unitOfWork(ctx context.Context, op string, fn func(Tx) error) error {
	err := l.store.WithTx(ctx, fn)
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount inserts a new account and returns the persisted row.
func (l *Ledger) CreateAccount(ctx context.Context, a Account) (Account, error) {
	if err := validateAccount(a); err != nil {
		return Account{}, err
	}
	var out Account
	err := l.unitOfWork(ctx, "create account", func(tx Tx) error {
		var err error
		out, err = tx.InsertAccount(ctx, a)
		return err
	})
	return out, err
}

// ListAccounts returns every account ordered by id.
func (l *Ledger) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	err := l.unitOfWork(ctx, "list accounts", func(tx Tx) error {
		var err error
		out, err = tx.ListAccounts(ctx)
		return err
	})
	return out, err
}

// GetAccount returns the account with id.
func (l *Ledger) GetAccount(ctx context.Context, id int64) (Account, error) {
	var out Account
	err := l.unitOfWork(ctx, "get account", func(tx Tx) error {
		var err error
		out, err = tx.GetAccount(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Account", id)
		}
		return err
	})
	return out, err
}

// AccountIDByNumber resolves an account number to its id.
// It returns nil when no account carries the number.
func (l *Ledger) AccountIDByNumber(ctx context.Context, number string) (*int64, error) {
	if number == "" {
		return nil, invalid("account_number", "is required")
	}
	var out *int64
	err := l.unitOfWork(ctx, "find account by number", func(tx Tx) error {
		a, err := tx.FindAccountByNumber(ctx, number)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &a.ID
		return nil
	})
	return out, err
}

// UpdateAccount replaces every mutable field of account id with a.
func (l *Ledger) UpdateAccount(ctx context.Context, id int64, a Account) (Account, error) {
	if err := validateAccount(a); err != nil {
		return Account{}, err
	}
	a.ID = id

	var out Account
	err := l.unitOfWork(ctx, "update account", func(tx Tx) error {
		if err := tx.UpdateAccount(ctx, a); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("Account", id)
			}
			return err
		}
		var err error
		out, err = tx.GetAccount(ctx, id)
		return err
	})
	return out, err
}

// DeleteAccount permanently removes account id.
func (l *Ledger) DeleteAccount(ctx context.Context, id int64) error {
	return l.unitOfWork(ctx, "delete account", func(tx Tx) error {
		err := tx.DeleteAccount(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Account", id)
		}
		return err
	})
}

// =============================================================================
// CYCLES
// =============================================================================

// CreateCycle inserts a new cycle and returns the persisted row.
func (l *Ledger) CreateCycle(ctx context.Context, c Cycle) (Cycle, error) {
	if err := validateCycle(c); err != nil {
		return Cycle{}, err
	}
	var out Cycle
	err := l.unitOfWork(ctx, "create cycle", func(tx Tx) error {
		var err error
		out, err = tx.InsertCycle(ctx, c)
		return err
	})
	return out, err
}

// ListCycles returns every cycle ordered by id.
func (l *Ledger) ListCycles(ctx context.Context) ([]Cycle, error) {
	var out []Cycle
	err := l.unitOfWork(ctx, "list cycles", func(tx Tx) error {
		var err error
		out, err = tx.ListCycles(ctx)
		return err
	})
	return out, err
}

// GetCycle returns the cycle with id.
func (l *Ledger) GetCycle(ctx context.Context, id int64) (Cycle, error) {
	var out Cycle
	err := l.unitOfWork(ctx, "get cycle", func(tx Tx) error {
		var err error
		out, err = tx.GetCycle(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Cycle", id)
		}
		return err
	})
	return out, err
}

// UpdateCycle replaces every mutable field of cycle id with c.
func (l *Ledger) UpdateCycle(ctx context.Context, id int64, c Cycle) (Cycle, error) {
	if err := validateCycle(c); err != nil {
		return Cycle{}, err
	}
	c.ID = id

	var out Cycle
	err := l.unitOfWork(ctx, "update cycle", func(tx Tx) error {
		if err := tx.UpdateCycle(ctx, c); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("Cycle", id)
			}
			return err
		}
		var err error
		out, err = tx.GetCycle(ctx, id)
		return err
	})
	return out, err
}

// DeleteCycle permanently removes cycle id.
func (l *Ledger) DeleteCycle(ctx context.Context, id int64) error {
	return l.unitOfWork(ctx, "delete cycle", func(tx Tx) error {
		err := tx.DeleteCycle(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Cycle", id)
		}
		return err
	})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// CreateTransaction inserts a new transaction. The store rejects an unknown
// account_id or cycle_id with ErrConstraint.
func (l *Ledger) CreateTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return Transaction{}, err
	}
	var out Transaction
	err := l.unitOfWork(ctx, "create transaction", func(tx Tx) error {
		var err error
		out, err = tx.InsertTransaction(ctx, t)
		return err
	})
	return out, err
}

// ListTransactions returns the transactions matching filter ordered by id.
func (l *Ledger) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var out []Transaction
	err := l.unitOfWork(ctx, "list transactions", func(tx Tx) error {
		var err error
		out, err = tx.ListTransactions(ctx, filter)
		return err
	})
	return out, err
}

// GetTransaction returns the transaction with id.
func (l *Ledger) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	var out Transaction
	err := l.unitOfWork(ctx, "get transaction", func(tx Tx) error {
		var err error
		out, err = tx.GetTransaction(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Transaction", id)
		}
		return err
	})
	return out, err
}

// UpdateTransaction replaces every mutable field of transaction id with t.
func (l *Ledger) UpdateTransaction(ctx context.Context, id int64, t Transaction) (Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return Transaction{}, err
	}
	t.ID = id

	var out Transaction
	err := l.unitOfWork(ctx, "update transaction", func(tx Tx) error {
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("Transaction", id)
			}
			return err
		}
		var err error
		out, err = tx.GetTransaction(ctx, id)
		return err
	})
	return out, err
}

// DeleteTransaction permanently removes transaction id. It does not look at
// or set IsDeleted.
func (l *Ledger) DeleteTransaction(ctx context.Context, id int64) error {
	return l.unitOfWork(ctx, "delete transaction", func(tx Tx) error {
		err := tx.DeleteTransaction(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return notFound("Transaction", id)
		}
		return err
	})
}
