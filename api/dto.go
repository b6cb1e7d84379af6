/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger entities from the wire contract the ingester and operator UI
  depend on.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Response types returned to clients

NULLS:
  Optional fields are pointers without omitempty, so an unset value is
  rendered as null rather than dropped. Request pointers distinguish
  "absent" from a zero value where the distinction matters (active,
  transaction_amount, last_seen_uid).

DATE-TIMES:
  Accepted as RFC 3339 or naive ISO-8601 (interpreted as UTC); rendered as
  RFC 3339 in UTC. Query filters start_date/end_date are YYYY-MM-DD.

VALIDATION:
  Shape validation (presence, parseability) happens when a request is
  converted to a ledger entity; business validation lives in the ledger.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Entities these map to
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/transactsync/transactsync/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountRequest is the body for creating or fully replacing an account.
type AccountRequest struct {
	AccountNumber        string  `json:"account_number"`
	FinancialInstitution string  `json:"financial_institution"`
	AccountName          string  `json:"account_name"`
	AccountOwner         *string `json:"account_owner"`
	Comments             *string `json:"comments"`
	Active               *bool   `json:"active"`
	AccountType          *string `json:"account_type"`
	LoadBy               *string `json:"load_by"`
}

func (req AccountRequest) toAccount() ledger.Account {
	return ledger.Account{
		AccountNumber:        req.AccountNumber,
		FinancialInstitution: req.FinancialInstitution,
		AccountName:          req.AccountName,
		AccountOwner:         req.AccountOwner,
		Comments:             req.Comments,
		Active:               lo.FromPtrOr(req.Active, true),
		AccountType:          req.AccountType,
		LoadBy:               req.LoadBy,
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountID            int64   `json:"account_id"`
	AccountNumber        string  `json:"account_number"`
	FinancialInstitution string  `json:"financial_institution"`
	AccountName          string  `json:"account_name"`
	AccountOwner         *string `json:"account_owner"`
	Active               bool    `json:"active"`
	Comments             *string `json:"comments"`
	AccountType          *string `json:"account_type"`
	LoadTime             string  `json:"load_time"`
	LoadBy               *string `json:"load_by"`
}

func toAccountResponse(a ledger.Account) AccountResponse {
	return AccountResponse{
		AccountID:            a.ID,
		AccountNumber:        a.AccountNumber,
		FinancialInstitution: a.FinancialInstitution,
		AccountName:          a.AccountName,
		AccountOwner:         a.AccountOwner,
		Active:               a.Active,
		Comments:             a.Comments,
		AccountType:          a.AccountType,
		LoadTime:             formatTime(a.LoadTime),
		LoadBy:               a.LoadBy,
	}
}

// AccountIDResponse is the result of an account-number lookup.
type AccountIDResponse struct {
	AccountID *int64 `json:"account_id"`
}

// =============================================================================
// CYCLES
// =============================================================================

// CycleRequest is the body for creating or fully replacing a cycle.
type CycleRequest struct {
	CycleStart       string  `json:"cycle_start"`
	CycleEnd         string  `json:"cycle_end"`
	CycleDescription *string `json:"cycle_description"`
	Comments         *string `json:"comments"`
	LoadBy           *string `json:"load_by"`
}

func (req CycleRequest) toCycle() (ledger.Cycle, error) {
	start, err := parseRequiredDateTime("cycle_start", req.CycleStart)
	if err != nil {
		return ledger.Cycle{}, err
	}
	end, err := parseRequiredDateTime("cycle_end", req.CycleEnd)
	if err != nil {
		return ledger.Cycle{}, err
	}
	return ledger.Cycle{
		Start:       start,
		End:         end,
		Description: req.CycleDescription,
		Comments:    req.Comments,
		LoadBy:      req.LoadBy,
	}, nil
}

// CycleResponse represents a cycle in API responses.
type CycleResponse struct {
	CycleID          int64   `json:"cycle_id"`
	CycleStart       string  `json:"cycle_start"`
	CycleEnd         string  `json:"cycle_end"`
	CycleDescription *string `json:"cycle_description"`
	Comments         *string `json:"comments"`
	LoadTime         string  `json:"load_time"`
	LoadBy           *string `json:"load_by"`
}

func toCycleResponse(c ledger.Cycle) CycleResponse {
	return CycleResponse{
		CycleID:          c.ID,
		CycleStart:       formatTime(c.Start),
		CycleEnd:         formatTime(c.End),
		CycleDescription: c.Description,
		Comments:         c.Comments,
		LoadTime:         formatTime(c.LoadTime),
		LoadBy:           c.LoadBy,
	}
}

// CycleIDResponse is the result of resolving a date to a cycle.
type CycleIDResponse struct {
	CycleID *int64 `json:"cycle_id"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionRequest is the body for creating or fully replacing a transaction.
type TransactionRequest struct {
	TransactionDate   string           `json:"transaction_date"`
	TransactionAmount *decimal.Decimal `json:"transaction_amount"`
	Merchant          string           `json:"merchant"`
	Category          *string          `json:"category"`
	AccountID         int64            `json:"account_id"`
	ExpenseOwner      *string          `json:"expense_owner"`
	FromAddress       *string          `json:"from_address"`
	ToAddress         *string          `json:"to_address"`
	EmailUID          *int64           `json:"email_uid"`
	EmailDate         *string          `json:"email_date"`
	LLMReasoning      *string          `json:"llm_reasoning"`
	IsDeleted         bool             `json:"is_deleted"`
	Comment           *string          `json:"comment"`
	UpdatedBy         *string          `json:"updated_by"`
	TransactionType   *string          `json:"transaction_type"`
	CycleID           *int64           `json:"cycle_id"`
	IsBudgeted        bool             `json:"is_budgeted"`
	LoadBy            *string          `json:"load_by"`
}

func (req TransactionRequest) toTransaction() (ledger.Transaction, error) {
	date, err := parseRequiredDateTime("transaction_date", req.TransactionDate)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if req.TransactionAmount == nil {
		return ledger.Transaction{}, &ledger.ValidationError{Field: "transaction_amount", Message: "is required"}
	}

	var emailDate *time.Time
	if req.EmailDate != nil {
		d, err := parseRequiredDateTime("email_date", *req.EmailDate)
		if err != nil {
			return ledger.Transaction{}, err
		}
		emailDate = &d
	}

	return ledger.Transaction{
		TransactionDate: date,
		Amount:          *req.TransactionAmount,
		Merchant:        req.Merchant,
		Category:        req.Category,
		AccountID:       req.AccountID,
		ExpenseOwner:    req.ExpenseOwner,
		FromAddress:     req.FromAddress,
		ToAddress:       req.ToAddress,
		EmailUID:        req.EmailUID,
		EmailDate:       emailDate,
		LLMReasoning:    req.LLMReasoning,
		IsDeleted:       req.IsDeleted,
		Comment:         req.Comment,
		UpdatedBy:       req.UpdatedBy,
		TransactionType: req.TransactionType,
		CycleID:         req.CycleID,
		IsBudgeted:      req.IsBudgeted,
		LoadBy:          req.LoadBy,
	}, nil
}

// TransactionResponse represents a transaction in API responses.
// transaction_amount is a JSON number carrying the exact decimal text.
type TransactionResponse struct {
	TransactionID     int64       `json:"transaction_id"`
	TransactionDate   string      `json:"transaction_date"`
	TransactionAmount json.Number `json:"transaction_amount"`
	Merchant          string      `json:"merchant"`
	Category          *string     `json:"category"`
	AccountID         int64       `json:"account_id"`
	ExpenseOwner      *string     `json:"expense_owner"`
	FromAddress       *string     `json:"from_address"`
	ToAddress         *string     `json:"to_address"`
	EmailUID          *int64      `json:"email_uid"`
	EmailDate         *string     `json:"email_date"`
	LLMReasoning      *string     `json:"llm_reasoning"`
	IsDeleted         bool        `json:"is_deleted"`
	Comment           *string     `json:"comment"`
	UpdatedBy         *string     `json:"updated_by"`
	UpdatedAt         *string     `json:"updated_at"`
	TransactionType   *string     `json:"transaction_type"`
	CycleID           *int64      `json:"cycle_id"`
	IsBudgeted        bool        `json:"is_budgeted"`
	LoadTime          string      `json:"load_time"`
	LoadBy            *string     `json:"load_by"`
}

func toTransactionResponse(t ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     t.ID,
		TransactionDate:   formatTime(t.TransactionDate),
		TransactionAmount: json.Number(t.Amount.String()),
		Merchant:          t.Merchant,
		Category:          t.Category,
		AccountID:         t.AccountID,
		ExpenseOwner:      t.ExpenseOwner,
		FromAddress:       t.FromAddress,
		ToAddress:         t.ToAddress,
		EmailUID:          t.EmailUID,
		EmailDate:         formatTimePtr(t.EmailDate),
		LLMReasoning:      t.LLMReasoning,
		IsDeleted:         t.IsDeleted,
		Comment:           t.Comment,
		UpdatedBy:         t.UpdatedBy,
		UpdatedAt:         formatTimePtr(t.UpdatedAt),
		TransactionType:   t.TransactionType,
		CycleID:           t.CycleID,
		IsBudgeted:        t.IsBudgeted,
		LoadTime:          formatTime(t.LoadTime),
		LoadBy:            t.LoadBy,
	}
}

// =============================================================================
// EMAIL CHECKPOINTS
// =============================================================================

// CheckpointRequest is the body of PUT /email_checkpoints/{folder}.
type CheckpointRequest struct {
	LastSeenUID *int64  `json:"last_seen_uid"`
	LoadBy      *string `json:"load_by"`
}

// CheckpointCreate is the body of POST /email_checkpoints.
type CheckpointCreate struct {
	Folder      string  `json:"folder"`
	LastSeenUID *int64  `json:"last_seen_uid"`
	LoadBy      *string `json:"load_by"`
}

// CheckpointResponse represents a checkpoint. ID, LastSeenUID and LoadTime
// are null for a folder that has never been checkpointed.
type CheckpointResponse struct {
	ID          *int64  `json:"id"`
	Folder      string  `json:"folder"`
	LastSeenUID *int64  `json:"last_seen_uid"`
	LoadTime    *string `json:"load_time"`
	LoadBy      *string `json:"load_by"`
}

func toCheckpointResponse(cp ledger.EmailCheckpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:          lo.ToPtr(cp.ID),
		Folder:      cp.Folder,
		LastSeenUID: lo.ToPtr(cp.LastSeenUID),
		LoadTime:    lo.ToPtr(formatTime(cp.LoadTime)),
		LoadBy:      cp.LoadBy,
	}
}

// =============================================================================
// COMMON
// =============================================================================

// StatusResponse acknowledges a delete or reports liveness.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InfoResponse describes the service at GET /.
type InfoResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// DATE-TIME PARSING
// =============================================================================

// dateTimeLayouts are tried in order. Layouts without a zone are read as UTC;
// fractional seconds are accepted after any seconds field.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q", s)
}

func parseRequiredDateTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &ledger.ValidationError{Field: field, Message: "is required"}
	}
	t, err := parseDateTime(s)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: field, Message: "must be an ISO-8601 date-time"}
	}
	return t, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: field, Message: "must be a YYYY-MM-DD date"}
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(formatTime(*t))
}
