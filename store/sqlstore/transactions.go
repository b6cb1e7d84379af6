package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/transactsync/transactsync/ledger"
)

const transactionColumns = `transaction_id, transaction_date, transaction_amount, merchant, category,
	account_id, expense_owner, from_address, to_address, email_uid, email_date, llm_reasoning,
	is_deleted, comment, updated_by, updated_at, transaction_type, cycle_id, is_budgeted,
	load_time, load_by`

// InsertTransaction adds a transaction and returns the stored row.
// Unknown account_id or cycle_id fail with ledger.ErrConstraint.
func (ts *txStore) InsertTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	query := `
		INSERT INTO transactions
		(transaction_date, transaction_amount, merchant, category, account_id, expense_owner,
		 from_address, to_address, email_uid, email_date, llm_reasoning, is_deleted, comment,
		 updated_by, updated_at, transaction_type, cycle_id, is_budgeted, load_time, load_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING transaction_id
	`

	id, err := ts.insertReturningID(ctx, query,
		utc(t.TransactionDate),
		t.Amount.String(),
		t.Merchant,
		nullable(t.Category),
		t.AccountID,
		nullable(t.ExpenseOwner),
		nullable(t.FromAddress),
		nullable(t.ToAddress),
		nullable(t.EmailUID),
		nullableTime(t.EmailDate),
		nullable(t.LLMReasoning),
		t.IsDeleted,
		nullable(t.Comment),
		nullable(t.UpdatedBy),
		nil,
		nullable(t.TransactionType),
		nullable(t.CycleID),
		t.IsBudgeted,
		ts.timestamp(),
		nullable(t.LoadBy),
	)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return ts.GetTransaction(ctx, id)
}

// ListTransactions returns transactions matching filter, ordered by id.
func (ts *txStore) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var (
		where []string
		args  []any
	)

	from, until := filter.Bounds()
	if from != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, *from)
	}
	if until != nil {
		where = append(where, "transaction_date < ?")
		args = append(args, *until)
	}
	if filter.CycleID != nil {
		where = append(where, "cycle_id = ?")
		args = append(args, *filter.CycleID)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_id ASC"

	rows, err := ts.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []ledger.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// GetTransaction retrieves a transaction by id.
func (ts *txStore) GetTransaction(ctx context.Context, id int64) (ledger.Transaction, error) {
	row := ts.queryRow(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE transaction_id = ?", id)
	return scanTransaction(row)
}

// UpdateTransaction overwrites every mutable column and stamps updated_at.
func (ts *txStore) UpdateTransaction(ctx context.Context, t ledger.Transaction) error {
	query := `
		UPDATE transactions SET
			transaction_date = ?,
			transaction_amount = ?,
			merchant = ?,
			category = ?,
			account_id = ?,
			expense_owner = ?,
			from_address = ?,
			to_address = ?,
			email_uid = ?,
			email_date = ?,
			llm_reasoning = ?,
			is_deleted = ?,
			comment = ?,
			updated_by = ?,
			updated_at = ?,
			transaction_type = ?,
			cycle_id = ?,
			is_budgeted = ?
		WHERE transaction_id = ?
	`

	res, err := ts.exec(ctx, query,
		utc(t.TransactionDate),
		t.Amount.String(),
		t.Merchant,
		nullable(t.Category),
		t.AccountID,
		nullable(t.ExpenseOwner),
		nullable(t.FromAddress),
		nullable(t.ToAddress),
		nullable(t.EmailUID),
		nullableTime(t.EmailDate),
		nullable(t.LLMReasoning),
		t.IsDeleted,
		nullable(t.Comment),
		nullable(t.UpdatedBy),
		ts.timestamp(),
		nullable(t.TransactionType),
		nullable(t.CycleID),
		t.IsBudgeted,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireOne(res)
}

// DeleteTransaction removes a transaction row. is_deleted is not consulted.
func (ts *txStore) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := ts.exec(ctx, "DELETE FROM transactions WHERE transaction_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireOne(res)
}

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var (
		t               ledger.Transaction
		category        sql.NullString
		expenseOwner    sql.NullString
		fromAddress     sql.NullString
		toAddress       sql.NullString
		emailUID        sql.NullInt64
		emailDate       sql.NullTime
		llmReasoning    sql.NullString
		comment         sql.NullString
		updatedBy       sql.NullString
		updatedAt       sql.NullTime
		transactionType sql.NullString
		cycleID         sql.NullInt64
		loadBy          sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.TransactionDate, &t.Amount, &t.Merchant, &category,
		&t.AccountID, &expenseOwner, &fromAddress, &toAddress, &emailUID, &emailDate, &llmReasoning,
		&t.IsDeleted, &comment, &updatedBy, &updatedAt, &transactionType, &cycleID, &t.IsBudgeted,
		&t.LoadTime, &loadBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.TransactionDate = utc(t.TransactionDate)
	t.LoadTime = utc(t.LoadTime)
	t.Category = stringPtr(category)
	t.ExpenseOwner = stringPtr(expenseOwner)
	t.FromAddress = stringPtr(fromAddress)
	t.ToAddress = stringPtr(toAddress)
	t.EmailUID = int64Ptr(emailUID)
	t.EmailDate = timePtr(emailDate)
	t.LLMReasoning = stringPtr(llmReasoning)
	t.Comment = stringPtr(comment)
	t.UpdatedBy = stringPtr(updatedBy)
	t.UpdatedAt = timePtr(updatedAt)
	t.TransactionType = stringPtr(transactionType)
	t.CycleID = int64Ptr(cycleID)
	t.LoadBy = stringPtr(loadBy)
	return t, nil
}
