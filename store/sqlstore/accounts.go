package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/transactsync/transactsync/ledger"
)

const accountColumns = `account_id, account_number, financial_institution, account_name,
	account_owner, active, comments, account_type, load_time, load_by`

// InsertAccount adds an account and returns the stored row.
func (ts *txStore) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	query := `
		INSERT INTO accounts
		(account_number, financial_institution, account_name, account_owner,
		 active, comments, account_type, load_time, load_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING account_id
	`

	id, err := ts.insertReturningID(ctx, query,
		a.AccountNumber,
		a.FinancialInstitution,
		a.AccountName,
		nullable(a.AccountOwner),
		a.Active,
		nullable(a.Comments),
		nullable(a.AccountType),
		ts.timestamp(),
		nullable(a.LoadBy),
	)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	return ts.GetAccount(ctx, id)
}

// ListAccounts returns all accounts ordered by id.
func (ts *txStore) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := ts.query(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY account_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []ledger.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount retrieves an account by id.
func (ts *txStore) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	row := ts.queryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE account_id = ?", id)
	return scanAccount(row)
}

// FindAccountByNumber retrieves the lowest-id account with the given number.
func (ts *txStore) FindAccountByNumber(ctx context.Context, number string) (ledger.Account, error) {
	row := ts.queryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE account_number = ? ORDER BY account_id LIMIT 1",
		number,
	)
	return scanAccount(row)
}

// UpdateAccount overwrites every mutable column. load_time and load_by are kept.
func (ts *txStore) UpdateAccount(ctx context.Context, a ledger.Account) error {
	query := `
		UPDATE accounts SET
			account_number = ?,
			financial_institution = ?,
			account_name = ?,
			account_owner = ?,
			active = ?,
			comments = ?,
			account_type = ?
		WHERE account_id = ?
	`

	res, err := ts.exec(ctx, query,
		a.AccountNumber,
		a.FinancialInstitution,
		a.AccountName,
		nullable(a.AccountOwner),
		a.Active,
		nullable(a.Comments),
		nullable(a.AccountType),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireOne(res)
}

// DeleteAccount removes an account. Fails with ledger.ErrConstraint while
// transactions still reference it.
func (ts *txStore) DeleteAccount(ctx context.Context, id int64) error {
	res, err := ts.exec(ctx, "DELETE FROM accounts WHERE account_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireOne(res)
}

func scanAccount(row scanner) (ledger.Account, error) {
	var (
		a            ledger.Account
		accountOwner sql.NullString
		comments     sql.NullString
		accountType  sql.NullString
		loadBy       sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.FinancialInstitution, &a.AccountName,
		&accountOwner, &a.Active, &comments, &accountType, &a.LoadTime, &loadBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}

	a.AccountOwner = stringPtr(accountOwner)
	a.Comments = stringPtr(comments)
	a.AccountType = stringPtr(accountType)
	a.LoadBy = stringPtr(loadBy)
	a.LoadTime = utc(a.LoadTime)
	return a, nil
}
