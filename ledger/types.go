/*
types.go - Core entities of the transaction ledger

PURPOSE:
  Defines the four persisted entities and the filter used to list
  transactions. These are plain data carriers; persistence lives behind
  the Store interface (store.go) and HTTP shapes live in api/dto.go.

ENTITIES:
  Account:         A bank/card account that transactions are booked against
  Transaction:     One financial event parsed from an email alert or entered by hand
  Cycle:           A named [start, end] window used to group transactions for budgeting
  EmailCheckpoint: Last mailbox UID processed for a folder (resume bookmark)

NULLABILITY:
  Optional columns are pointers. A nil pointer is stored as NULL and
  rendered as JSON null. Updates are full replaces, so a nil pointer in an
  update clears the stored value.

AUDIT FIELDS:
  LoadTime and LoadBy are set once at insert and never rewritten.
  Transaction.UpdatedAt is stamped by the store on every update.

SEE ALSO:
  - store.go: Persistence interfaces
  - ledger.go: Unit-of-work operations over these types
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a financial-institution account tracked for budgeting.
type Account struct {
	ID                   int64
	AccountNumber        string
	FinancialInstitution string
	AccountName          string
	AccountOwner         *string
	Active               bool
	Comments             *string
	AccountType          *string
	LoadTime             time.Time
	LoadBy               *string
}

// Transaction is one recorded financial event.
//
// IsDeleted is a soft-delete marker owned by the ingester. It is independent
// of DeleteTransaction, which removes the row outright.
type Transaction struct {
	ID              int64
	TransactionDate time.Time
	Amount          decimal.Decimal
	Merchant        string
	Category        *string
	AccountID       int64
	ExpenseOwner    *string
	FromAddress     *string
	ToAddress       *string
	EmailUID        *int64
	EmailDate       *time.Time
	LLMReasoning    *string
	IsDeleted       bool
	Comment         *string
	UpdatedBy       *string
	UpdatedAt       *time.Time
	TransactionType *string
	CycleID         *int64
	IsBudgeted      bool
	LoadTime        time.Time
	LoadBy          *string
}

// Cycle is a named time window. Both bounds are inclusive.
type Cycle struct {
	ID          int64
	Start       time.Time
	End         time.Time
	Description *string
	Comments    *string
	LoadTime    time.Time
	LoadBy      *string
}

// EmailCheckpoint is the last mailbox UID processed for a folder.
type EmailCheckpoint struct {
	ID          int64
	Folder      string
	LastSeenUID int64
	LoadTime    time.Time
	LoadBy      *string
}

// TransactionFilter narrows ListTransactions. Zero-valued fields do not filter.
type TransactionFilter struct {
	// StartDate admits transactions at or after midnight UTC of that day.
	StartDate *time.Time
	// EndDate admits transactions strictly before midnight UTC of the following day.
	EndDate *time.Time
	CycleID *int64
}

// Bounds converts the calendar-day filter into a half-open [from, until) range.
// A nil bound is unbounded.
func (f TransactionFilter) Bounds() (from, until *time.Time) {
	if f.StartDate != nil {
		d := StartOfDay(*f.StartDate)
		from = &d
	}
	if f.EndDate != nil {
		d := StartOfDay(*f.EndDate).AddDate(0, 0, 1)
		until = &d
	}
	return from, until
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
