package sqlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/transactsync/transactsync/ledger"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// sqliteParams are appended to every SQLite DSN. Foreign keys are off by
// default in SQLite and must be enabled per connection.
const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

func (d dialect) driver() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// parseDatabaseURL picks the dialect and builds the driver DSN.
func parseDatabaseURL(databaseURL string) (dialect, string, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return "", "", errors.New("database url is empty")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return dialectPostgres, u, nil
	case strings.HasPrefix(u, "sqlite://"):
		u = strings.TrimPrefix(u, "sqlite://")
	case strings.HasPrefix(u, "sqlite3://"):
		u = strings.TrimPrefix(u, "sqlite3://")
	}

	if u == "" {
		return "", "", errors.New("sqlite database path is empty")
	}

	path := u
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return "", "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return dialectSQLite, u + sep + sqliteParams, nil
}

// rebind rewrites "?" placeholders to "$1, $2, ..." for PostgreSQL.
// Queries in this package never contain a literal "?".
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// classify maps driver constraint failures to ledger.ErrConstraint, keeping
// the driver message for logs.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: foreign key: %v", ledger.ErrConstraint, err)
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: unique: %v", ledger.ErrConstraint, err)
		default:
			return fmt.Errorf("%w: %v", ledger.ErrConstraint, err)
		}
	}

	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code.Class() == "23" {
		switch pe.Code {
		case "23503":
			return fmt.Errorf("%w: foreign key: %v", ledger.ErrConstraint, err)
		case "23505":
			return fmt.Errorf("%w: unique: %v", ledger.ErrConstraint, err)
		default:
			return fmt.Errorf("%w: %v", ledger.ErrConstraint, err)
		}
	}

	return err
}

func (d dialect) schema() string {
	if d == dialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

const sqliteSchema = `
	-- Accounts
	CREATE TABLE IF NOT EXISTS accounts (
		account_id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_number TEXT NOT NULL,
		financial_institution TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_owner TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		comments TEXT,
		account_type TEXT,
		load_time TIMESTAMP NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_number
		ON accounts(account_number);

	-- Cycles (budget windows, inclusive bounds)
	CREATE TABLE IF NOT EXISTS cycles (
		cycle_id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_start TIMESTAMP NOT NULL,
		cycle_end TIMESTAMP NOT NULL,
		cycle_description TEXT,
		comments TEXT,
		load_time TIMESTAMP NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_bounds
		ON cycles(cycle_start, cycle_end);

	-- Transactions
	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_date TIMESTAMP NOT NULL,
		transaction_amount TEXT NOT NULL,
		merchant TEXT NOT NULL,
		category TEXT,
		account_id INTEGER NOT NULL REFERENCES accounts(account_id),
		expense_owner TEXT,
		from_address TEXT,
		to_address TEXT,
		email_uid INTEGER,
		email_date TIMESTAMP,
		llm_reasoning TEXT,
		is_deleted BOOLEAN NOT NULL DEFAULT 0,
		comment TEXT,
		updated_by TEXT,
		updated_at TIMESTAMP,
		transaction_type TEXT,
		cycle_id INTEGER REFERENCES cycles(cycle_id),
		is_budgeted BOOLEAN NOT NULL DEFAULT 0,
		load_time TIMESTAMP NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(transaction_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_cycle
		ON transactions(cycle_id) WHERE cycle_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id);

	-- Email checkpoints (one row per folder)
	CREATE TABLE IF NOT EXISTS email_checkpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL UNIQUE,
		last_seen_uid INTEGER NOT NULL,
		load_time TIMESTAMP NOT NULL,
		load_by TEXT
	);
	`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS accounts (
		account_id BIGSERIAL PRIMARY KEY,
		account_number TEXT NOT NULL,
		financial_institution TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_owner TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		comments TEXT,
		account_type TEXT,
		load_time TIMESTAMPTZ NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_number
		ON accounts(account_number);

	CREATE TABLE IF NOT EXISTS cycles (
		cycle_id BIGSERIAL PRIMARY KEY,
		cycle_start TIMESTAMPTZ NOT NULL,
		cycle_end TIMESTAMPTZ NOT NULL,
		cycle_description TEXT,
		comments TEXT,
		load_time TIMESTAMPTZ NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_bounds
		ON cycles(cycle_start, cycle_end);

	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id BIGSERIAL PRIMARY KEY,
		transaction_date TIMESTAMPTZ NOT NULL,
		transaction_amount NUMERIC NOT NULL,
		merchant TEXT NOT NULL,
		category TEXT,
		account_id BIGINT NOT NULL REFERENCES accounts(account_id),
		expense_owner TEXT,
		from_address TEXT,
		to_address TEXT,
		email_uid BIGINT,
		email_date TIMESTAMPTZ,
		llm_reasoning TEXT,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		comment TEXT,
		updated_by TEXT,
		updated_at TIMESTAMPTZ,
		transaction_type TEXT,
		cycle_id BIGINT REFERENCES cycles(cycle_id),
		is_budgeted BOOLEAN NOT NULL DEFAULT FALSE,
		load_time TIMESTAMPTZ NOT NULL,
		load_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(transaction_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_cycle
		ON transactions(cycle_id) WHERE cycle_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id);

	CREATE TABLE IF NOT EXISTS email_checkpoints (
		id BIGSERIAL PRIMARY KEY,
		folder TEXT NOT NULL UNIQUE,
		last_seen_uid BIGINT NOT NULL,
		load_time TIMESTAMPTZ NOT NULL,
		load_by TEXT
	);
	`
