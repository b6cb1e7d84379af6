package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactsync/transactsync/ledger"
	"github.com/transactsync/transactsync/logger"
	"github.com/transactsync/transactsync/store/sqlstore"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const testAPIKey = "test-secret"

func setupTestRouter(t *testing.T, apiKey string) *chi.Mux {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(ledger.New(store), logger.NewWithWriter(io.Discard))
	return NewRouter(h, RouterConfig{APIKey: apiKey})
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, testAPIKey)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createTestAccount(t *testing.T, router http.Handler) AccountResponse {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/accounts", map[string]any{
		"account_number":        "4321",
		"financial_institution": "First Bank",
		"account_name":          "Checking",
		"account_owner":         "alex",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[AccountResponse](t, w)
}

func createTestTransaction(t *testing.T, router http.Handler, accountID int64, date string) TransactionResponse {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/transactions", map[string]any{
		"transaction_date":   date,
		"transaction_amount": 12.34,
		"merchant":           "Cafe",
		"account_id":         accountID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[TransactionResponse](t, w)
}

// =============================================================================
// SERVICE AND ACCESS GATE
// =============================================================================

func TestHealth_IsPublic(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[StatusResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	info := decode[InfoResponse](t, w)
	assert.Equal(t, Version, info.Version)
}

func TestAccessGate(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusForbidden},
		{"wrong key", "nope", http.StatusForbidden},
		{"right key", testAPIKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Forbidden: invalid API key"}`, w.Body.String())
			}
		})
	}
}

func TestWriteClientError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		client bool
	}{
		{"validation", &ledger.ValidationError{Field: "folder", Message: "folder is required"}, http.StatusBadRequest, true},
		{"not found", &ledger.NotFoundError{Entity: "Account"}, http.StatusNotFound, true},
		{"forbidden", ledger.ErrForbidden, http.StatusForbidden, true},
		{"store", ledger.ErrStore, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			assert.Equal(t, tt.client, writeClientError(w, tt.err))
			if tt.client {
				assert.Equal(t, tt.status, w.Code)
			} else {
				assert.Zero(t, w.Body.Len())
			}
		})
	}
}

func TestAccessGate_DisabledWithoutKey(t *testing.T) {
	router := setupTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight_BypassesGate(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	req := httptest.NewRequest(http.MethodOptions, "/accounts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", APIKeyHeader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEqual(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccounts_CreateDefaultsActive(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	a := createTestAccount(t, router)

	assert.Positive(t, a.AccountID)
	assert.True(t, a.Active)
	assert.Equal(t, "alex", *a.AccountOwner)
	assert.NotEmpty(t, a.LoadTime)
}

func TestAccounts_MissingRequiredFieldIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPost, "/accounts", map[string]any{
		"account_number": "1",
		"account_name":   "n",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "financial_institution")
}

func TestAccounts_GetUnknownIs404(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodGet, "/accounts/999", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Account not found"}`, w.Body.String())
}

func TestAccounts_InvalidIDIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodGet, "/accounts/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccounts_FullUpdateClearsOmittedFields(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	w := doRequest(t, router, http.MethodPut, "/accounts/"+itoa(a.AccountID), map[string]any{
		"account_number":        "4321",
		"financial_institution": "First Bank",
		"account_name":          "Everyday Checking",
		"active":                false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[AccountResponse](t, w)
	assert.Equal(t, "Everyday Checking", updated.AccountName)
	assert.Nil(t, updated.AccountOwner)
	assert.False(t, updated.Active)
	assert.Equal(t, a.LoadTime, updated.LoadTime)
}

func TestAccounts_ByNumber(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	w := doRequest(t, router, http.MethodGet, "/accounts/by-number?account_number=4321", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[AccountIDResponse](t, w)
	require.NotNil(t, found.AccountID)
	assert.Equal(t, a.AccountID, *found.AccountID)

	w = doRequest(t, router, http.MethodGet, "/accounts/by-number?account_number=0000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account_id":null}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/accounts/by-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccounts_DeleteReferencedIs500AndKeepsAccount(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)
	createTestTransaction(t, router, a.AccountID, "2024-01-15T10:00:00")

	w := doRequest(t, router, http.MethodDelete, "/accounts/"+itoa(a.AccountID), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(t, router, http.MethodGet, "/accounts/"+itoa(a.AccountID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccounts_Delete(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	w := doRequest(t, router, http.MethodDelete, "/accounts/"+itoa(a.AccountID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[StatusResponse](t, w)
	assert.Equal(t, "success", resp.Status)

	w = doRequest(t, router, http.MethodDelete, "/accounts/"+itoa(a.AccountID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestTransactions_CreateRendersAmountAsNumber(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	tr := createTestTransaction(t, router, a.AccountID, "2024-01-15T10:00:00")

	w := doRequest(t, router, http.MethodGet, "/transactions/"+itoa(tr.TransactionID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(w.Body.Bytes()))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&raw))

	assert.Equal(t, json.Number("12.34"), raw["transaction_amount"])
	assert.Equal(t, "2024-01-15T10:00:00Z", raw["transaction_date"])
	assert.Nil(t, raw["category"])
	assert.Nil(t, raw["updated_at"])
	assert.Equal(t, false, raw["is_deleted"])
	assert.Equal(t, false, raw["is_budgeted"])
}

func TestTransactions_MissingAmountIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	w := doRequest(t, router, http.MethodPost, "/transactions", map[string]any{
		"transaction_date": "2024-01-15",
		"merchant":         "Cafe",
		"account_id":       a.AccountID,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "transaction_amount")
}

func TestTransactions_UnknownAccountIs500(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPost, "/transactions", map[string]any{
		"transaction_date":   "2024-01-15",
		"transaction_amount": "5.00",
		"merchant":           "Cafe",
		"account_id":         77,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTransactions_DateFilterBoundaries(t *testing.T) {
	// GIVEN: Transactions at 2024-01-31T23:59 and 2024-02-01T00:00
	// WHEN: Listing January
	// THEN: Only the first is returned

	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)

	inside := createTestTransaction(t, router, a.AccountID, "2024-01-31T23:59:00")
	createTestTransaction(t, router, a.AccountID, "2024-02-01T00:00:00")

	w := doRequest(t, router, http.MethodGet, "/transactions?start_date=2024-01-01&end_date=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[[]TransactionResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, inside.TransactionID, list[0].TransactionID)
}

func TestTransactions_BadFilterIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodGet, "/transactions?start_date=01/01/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/transactions?cycle_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactions_UpdateSetsUpdatedAt(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)
	a := createTestAccount(t, router)
	tr := createTestTransaction(t, router, a.AccountID, "2024-01-15T10:00:00Z")

	w := doRequest(t, router, http.MethodPut, "/transactions/"+itoa(tr.TransactionID), map[string]any{
		"transaction_date":   "2024-01-15T10:00:00Z",
		"transaction_amount": "99.5",
		"merchant":           "Cafe",
		"account_id":         a.AccountID,
		"is_budgeted":        true,
		"updated_by":         "operator",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[TransactionResponse](t, w)
	assert.Equal(t, json.Number("99.5"), updated.TransactionAmount)
	assert.True(t, updated.IsBudgeted)
	assert.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, tr.LoadTime, updated.LoadTime)
}

// =============================================================================
// CYCLES
// =============================================================================

func TestCycles_ForDate(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPost, "/cycles", map[string]any{
		"cycle_start":       "2024-01-01T00:00:00",
		"cycle_end":         "2024-01-31T23:59:59",
		"cycle_description": "January",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[CycleResponse](t, w)

	w = doRequest(t, router, http.MethodGet, "/cycles/for-date?transaction_date=2024-01-31T23:59:59", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[CycleIDResponse](t, w)
	require.NotNil(t, found.CycleID)
	assert.Equal(t, c.CycleID, *found.CycleID)

	w = doRequest(t, router, http.MethodGet, "/cycles/for-date?transaction_date=2024-02-01T00:00:00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cycle_id":null}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/cycles/for-date?transaction_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCycles_StartAfterEndIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPost, "/cycles", map[string]any{
		"cycle_start": "2024-02-01",
		"cycle_end":   "2024-01-01",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// EMAIL CHECKPOINTS
// =============================================================================

func TestCheckpoints_UnknownFolderReturnsNulls(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodGet, "/email_checkpoints/INBOX", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":null,"folder":"INBOX","last_seen_uid":null,"load_time":null,"load_by":null}`, w.Body.String())
}

func TestCheckpoints_UpsertThenGet(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPut, "/email_checkpoints/INBOX", map[string]any{"last_seen_uid": 120})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[CheckpointResponse](t, w)

	w = doRequest(t, router, http.MethodPost, "/email_checkpoints", map[string]any{"folder": "INBOX", "last_seen_uid": 130})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[CheckpointResponse](t, w)
	assert.Equal(t, *first.ID, *second.ID)

	w = doRequest(t, router, http.MethodGet, "/email_checkpoints/INBOX", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[CheckpointResponse](t, w)
	require.NotNil(t, got.LastSeenUID)
	assert.Equal(t, int64(130), *got.LastSeenUID)

	w = doRequest(t, router, http.MethodGet, "/email_checkpoints", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]CheckpointResponse](t, w), 1)
}

func TestCheckpoints_MissingUIDIs400(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPut, "/email_checkpoints/INBOX", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckpoints_EscapedFolder(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPut, "/email_checkpoints/INBOX%2FAlerts", map[string]any{"last_seen_uid": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cp := decode[CheckpointResponse](t, w)
	assert.Equal(t, "INBOX/Alerts", cp.Folder)
}

func TestCheckpoints_FolderDecodedOnce(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	folders := []string{"100%", "a%2Fb", "Sale %41", "INBOX/Alerts"}

	for i, folder := range folders {
		t.Run(folder, func(t *testing.T) {
			path := "/email_checkpoints/" + url.PathEscape(folder)
			uid := int64(10 + i)

			w := doRequest(t, router, http.MethodPut, path, map[string]any{"last_seen_uid": uid})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, folder, decode[CheckpointResponse](t, w).Folder)

			w = doRequest(t, router, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			got := decode[CheckpointResponse](t, w)
			assert.Equal(t, folder, got.Folder)
			require.NotNil(t, got.LastSeenUID)
			assert.Equal(t, uid, *got.LastSeenUID)
		})
	}

	w := doRequest(t, router, http.MethodGet, "/email_checkpoints", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]CheckpointResponse](t, w), len(folders))
}

func TestCheckpoints_UnsetLoadByIsNull(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodPut, "/email_checkpoints/INBOX", map[string]any{"last_seen_uid": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "load_by")
	assert.Nil(t, body["load_by"])
	assert.NotNil(t, body["load_time"])
}

func TestCheckpoints_Delete(t *testing.T) {
	router := setupTestRouter(t, testAPIKey)

	w := doRequest(t, router, http.MethodDelete, "/email_checkpoints/INBOX", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doRequest(t, router, http.MethodPut, "/email_checkpoints/INBOX", map[string]any{"last_seen_uid": 1})

	w = doRequest(t, router, http.MethodDelete, "/email_checkpoints/INBOX", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/email_checkpoints/INBOX", nil)
	assert.JSONEq(t, `{"id":null,"folder":"INBOX","last_seen_uid":null,"load_time":null,"load_by":null}`, w.Body.String())
}
