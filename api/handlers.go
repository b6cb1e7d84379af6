/*
handlers.go - HTTP API handlers for the transaction ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to ledger.Ledger.

ENDPOINTS:
  Accounts:
    GET    /accounts                      List all accounts
    POST   /accounts                      Create account
    GET    /accounts/by-number            Resolve account_number to id
    GET    /accounts/{id}                 Get account
    PUT    /accounts/{id}                 Replace account
    DELETE /accounts/{id}                 Delete account

  Transactions:
    GET    /transactions                  List (start_date, end_date, cycle_id)
    POST   /transactions                  Create transaction
    GET    /transactions/{id}             Get transaction
    PUT    /transactions/{id}             Replace transaction
    DELETE /transactions/{id}             Delete transaction

  Cycles:
    GET    /cycles                        List all cycles
    POST   /cycles                        Create cycle
    GET    /cycles/for-date               Resolve transaction_date to cycle id
    GET    /cycles/{id}                   Get cycle
    PUT    /cycles/{id}                   Replace cycle
    DELETE /cycles/{id}                   Delete cycle

  Email checkpoints:
    GET    /email_checkpoints             List all bookmarks
    POST   /email_checkpoints             Upsert (folder in body)
    GET    /email_checkpoints/{folder}    Get bookmark (never 404)
    PUT    /email_checkpoints/{folder}    Upsert
    DELETE /email_checkpoints/{folder}    Reset bookmark

REQUEST FLOW:
  1. Parse path, query and body
  2. Convert the DTO (shape validation)
  3. Call the ledger (business validation + unit-of-work)
  4. Serialize response
  5. Map errors to status codes (errors.go)

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/transactsync/transactsync/ledger"
)

// Version is reported by GET /.
const Version = "1.0.0"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewHandler creates a new handler over the given ledger.
func NewHandler(l *ledger.Ledger, log zerolog.Logger) *Handler {
	return &Handler{
		Ledger: l,
		log:    log,
	}
}

// =============================================================================
// SERVICE HANDLERS
// =============================================================================

// Health reports liveness. It does not touch the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "healthy",
		Message: "TransactSync API is running",
	})
}

// Root describes the service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message:     "Welcome to TransactSync API",
		Version:     Version,
		Description: "Ledger of accounts, transactions, budgeting cycles and email ingestion checkpoints",
	})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Ledger.ListAccounts(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "list accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(accounts, func(a ledger.Account, _ int) AccountResponse {
		return toAccountResponse(a)
	}))
}

// CreateAccount creates a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "create account", err)
		return
	}

	account, err := h.Ledger.CreateAccount(r.Context(), req.toAccount())
	if err != nil {
		h.writeLedgerError(w, r, "create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccountIDByNumber resolves ?account_number= to an id, or null.
func (h *Handler) GetAccountIDByNumber(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("account_number")

	id, err := h.Ledger.AccountIDByNumber(r.Context(), number)
	if err != nil {
		h.writeLedgerError(w, r, "find account by number", err)
		return
	}
	writeJSON(w, http.StatusOK, AccountIDResponse{AccountID: id})
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	account, err := h.Ledger.GetAccount(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, r, "get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// UpdateAccount fully replaces an account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "update account", err)
		return
	}

	account, err := h.Ledger.UpdateAccount(r.Context(), id, req.toAccount())
	if err != nil {
		h.writeLedgerError(w, r, "update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// DeleteAccount removes an account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteAccount(r.Context(), id); err != nil {
		h.writeLedgerError(w, r, "delete account", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Account deleted successfully",
	})
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns transactions, optionally filtered by
// start_date, end_date (inclusive calendar days) and cycle_id.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		h.writeLedgerError(w, r, "list transactions", err)
		return
	}

	transactions, err := h.Ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, r, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(transactions, func(t ledger.Transaction, _ int) TransactionResponse {
		return toTransactionResponse(t)
	}))
}

// CreateTransaction records a new transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "create transaction", err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		h.writeLedgerError(w, r, "create transaction", err)
		return
	}

	created, err := h.Ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		h.writeLedgerError(w, r, "create transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

// GetTransaction returns a single transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	t, err := h.Ledger.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, r, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// UpdateTransaction fully replaces a transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req TransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "update transaction", err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		h.writeLedgerError(w, r, "update transaction", err)
		return
	}

	updated, err := h.Ledger.UpdateTransaction(r.Context(), id, t)
	if err != nil {
		h.writeLedgerError(w, r, "update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

// DeleteTransaction removes a transaction row.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteTransaction(r.Context(), id); err != nil {
		h.writeLedgerError(w, r, "delete transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Transaction deleted successfully",
	})
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

// ListCycles returns all cycles.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Ledger.ListCycles(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "list cycles", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(cycles, func(c ledger.Cycle, _ int) CycleResponse {
		return toCycleResponse(c)
	}))
}

// CreateCycle creates a new cycle.
func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CycleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "create cycle", err)
		return
	}
	c, err := req.toCycle()
	if err != nil {
		h.writeLedgerError(w, r, "create cycle", err)
		return
	}

	created, err := h.Ledger.CreateCycle(r.Context(), c)
	if err != nil {
		h.writeLedgerError(w, r, "create cycle", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCycleResponse(created))
}

// GetCycleForDate resolves ?transaction_date= to the id of a containing
// cycle, or null.
func (h *Handler) GetCycleForDate(w http.ResponseWriter, r *http.Request) {
	at, err := parseRequiredDateTime("transaction_date", r.URL.Query().Get("transaction_date"))
	if err != nil {
		h.writeLedgerError(w, r, "resolve cycle", err)
		return
	}

	id, err := h.Ledger.ResolveCycle(r.Context(), at)
	if err != nil {
		h.writeLedgerError(w, r, "resolve cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, CycleIDResponse{CycleID: id})
}

// GetCycle returns a single cycle.
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.Ledger.GetCycle(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, r, "get cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(c))
}

// UpdateCycle fully replaces a cycle.
func (h *Handler) UpdateCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req CycleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "update cycle", err)
		return
	}
	c, err := req.toCycle()
	if err != nil {
		h.writeLedgerError(w, r, "update cycle", err)
		return
	}

	updated, err := h.Ledger.UpdateCycle(r.Context(), id, c)
	if err != nil {
		h.writeLedgerError(w, r, "update cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(updated))
}

// DeleteCycle removes a cycle.
func (h *Handler) DeleteCycle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteCycle(r.Context(), id); err != nil {
		h.writeLedgerError(w, r, "delete cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Cycle deleted successfully",
	})
}

// =============================================================================
// EMAIL CHECKPOINT HANDLERS
// =============================================================================

// ListCheckpoints returns every folder bookmark.
func (h *Handler) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := h.Ledger.ListCheckpoints(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "list email checkpoints", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(checkpoints, func(cp ledger.EmailCheckpoint, _ int) CheckpointResponse {
		return toCheckpointResponse(cp)
	}))
}

// GetCheckpoint returns the bookmark for a folder. A folder that was never
// checkpointed yields id and last_seen_uid null with 200.
func (h *Handler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	folder, ok := parseFolder(w, r)
	if !ok {
		return
	}

	cp, err := h.Ledger.GetCheckpoint(r.Context(), folder)
	if err != nil {
		h.writeLedgerError(w, r, "get email checkpoint", err)
		return
	}
	if cp == nil {
		writeJSON(w, http.StatusOK, CheckpointResponse{Folder: folder})
		return
	}
	writeJSON(w, http.StatusOK, toCheckpointResponse(*cp))
}

// UpsertCheckpoint stores last_seen_uid for the folder in the path.
func (h *Handler) UpsertCheckpoint(w http.ResponseWriter, r *http.Request) {
	folder, ok := parseFolder(w, r)
	if !ok {
		return
	}

	var req CheckpointRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "update email checkpoint", err)
		return
	}
	h.upsertCheckpoint(w, r, folder, req.LastSeenUID, req.LoadBy)
}

// CreateCheckpoint stores last_seen_uid for the folder in the body. It has
// the same upsert semantics as PUT.
func (h *Handler) CreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req CheckpointCreate
	if err := decodeJSON(r, &req); err != nil {
		h.writeLedgerError(w, r, "create email checkpoint", err)
		return
	}
	h.upsertCheckpoint(w, r, req.Folder, req.LastSeenUID, req.LoadBy)
}

func (h *Handler) upsertCheckpoint(w http.ResponseWriter, r *http.Request, folder string, uid *int64, loadBy *string) {
	if uid == nil {
		h.writeLedgerError(w, r, "upsert email checkpoint",
			&ledger.ValidationError{Field: "last_seen_uid", Message: "is required"})
		return
	}

	cp, err := h.Ledger.UpsertCheckpoint(r.Context(), folder, *uid, loadBy)
	if err != nil {
		h.writeLedgerError(w, r, "upsert email checkpoint", err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckpointResponse(cp))
}

// DeleteCheckpoint resets a folder to never-checkpointed.
func (h *Handler) DeleteCheckpoint(w http.ResponseWriter, r *http.Request) {
	folder, ok := parseFolder(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.DeleteCheckpoint(r.Context(), folder); err != nil {
		h.writeLedgerError(w, r, "delete email checkpoint", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Email checkpoint deleted successfully",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

// parseFolder returns the decoded {folder} segment. chi matches on
// r.URL.RawPath when it is set, so the segment is still escaped then
// ("INBOX%2FAlerts"); otherwise it was matched on the decoded path and is
// used as is.
func parseFolder(w http.ResponseWriter, r *http.Request) (string, bool) {
	folder := chi.URLParam(r, "folder")
	if r.URL.RawPath == "" {
		return folder, true
	}
	folder, err := url.PathUnescape(folder)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid folder", err)
		return "", false
	}
	return folder, true
}

func parseTransactionFilter(q url.Values) (ledger.TransactionFilter, error) {
	var filter ledger.TransactionFilter

	if s := q.Get("start_date"); s != "" {
		d, err := parseDate("start_date", s)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := parseDate("end_date", s)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &d
	}
	if s := q.Get("cycle_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filter, &ledger.ValidationError{Field: "cycle_id", Message: "must be an integer"}
		}
		filter.CycleID = &id
	}
	return filter, nil
}
