package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockmanager/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the typed domain errors onto HTTP statuses. Anything
// not recognized is a 500 with a generic message so internals never leak.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unknown *core.UnknownOrderError
		state   *core.OrderStateError
		stock   *core.ProductStockError
		empty   *core.EmptyOrderError
		locked  *core.OrderLockedError
	)
	switch {
	case errors.As(err, &unknown):
		writeError(w, r, unknown.Error(), "ORDER_NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &state):
		writeError(w, r, state.Error(), "INVALID_STATE", http.StatusConflict)
	case errors.As(err, &stock):
		writeError(w, r, stock.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.As(err, &empty):
		writeError(w, r, empty.Error(), "EMPTY_ORDER", http.StatusUnprocessableEntity)
	case errors.As(err, &locked):
		writeError(w, r, locked.Error(), "ORDER_LOCKED", http.StatusConflict)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
