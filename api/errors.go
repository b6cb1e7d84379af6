package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/transactsync/transactsync/ledger"
)

// writeLedgerError maps a ledger error onto a status code.
//
//	ValidationError -> 400
//	NotFoundError   -> 404
//	ErrForbidden    -> 403
//	anything else   -> 500 (logged)
func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if writeClientError(w, err) {
		return
	}

	h.log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msgf("failed to %s", action)

	if ledger.IsConstraint(err) {
		writeError(w, http.StatusInternalServerError, "Failed to "+action, err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to "+action, nil)
}

// writeClientError writes the 4xx response for err. It reports false,
// writing nothing, when err is not caused by the client.
func writeClientError(w http.ResponseWriter, err error) bool {
	var (
		validation *ledger.ValidationError
		notFound   *ledger.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "Invalid request", validation)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error(), nil)
	case errors.Is(err, ledger.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden: invalid API key", nil)
	default:
		return false
	}
	return true
}

// decodeJSON reads the request body into v. A malformed body is reported
// as a validation error on field "body".
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ledger.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
