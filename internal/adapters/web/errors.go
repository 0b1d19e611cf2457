package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"sales-ledger/internal/core"
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

// domainError maps a core sentinel to its HTTP status and machine code.
type domainError struct {
	sentinel error
	code     string
	status   int
}

var domainErrors = []domainError{
	{core.ErrCustomerNotFound, "CUSTOMER_NOT_FOUND", http.StatusNotFound},
	{core.ErrSaleNotFound, "SALE_NOT_FOUND", http.StatusNotFound},
	{core.ErrPurchaseNotFound, "PURCHASE_NOT_FOUND", http.StatusNotFound},
	{core.ErrAlreadyVoided, "ALREADY_VOIDED", http.StatusConflict},
	{core.ErrAlreadyPaid, "ALREADY_PAID", http.StatusConflict},
	{core.ErrOverpayment, "OVERPAYMENT_REJECTED", http.StatusConflict},
	{core.ErrSaleNotActive, "SALE_NOT_ACTIVE", http.StatusConflict},
	{core.ErrCustomerInactive, "CUSTOMER_INACTIVE", http.StatusUnprocessableEntity},
	{core.ErrCreditNotAllowed, "CREDIT_NOT_ALLOWED", http.StatusUnprocessableEntity},
	{core.ErrNotCreditSale, "NOT_CREDIT_SALE", http.StatusUnprocessableEntity},
	{core.ErrEmptyOrder, "EMPTY_ORDER", http.StatusBadRequest},
	{core.ErrInvalidSpec, "INVALID_SPEC", http.StatusBadRequest},
	{core.ErrInvalidProduct, "INVALID_PRODUCT", http.StatusBadRequest},
	{core.ErrInvalidPayment, "INVALID_PAYMENT_TYPE", http.StatusBadRequest},
	{core.ErrMissingReason, "MISSING_REASON", http.StatusBadRequest},
	{core.ErrInvalidLine, "INVALID_LINE", http.StatusBadRequest},
	{core.ErrInvalidMoveType, "INVALID_MOVE_TYPE", http.StatusBadRequest},
	{core.ErrInvalidAmount, "INVALID_AMOUNT", http.StatusBadRequest},
}

// writeDomainError translates a core error into the JSON error envelope,
// falling back to HTTP 500 for anything not in the taxonomy.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.sentinel) {
			writeError(w, r, err.Error(), de.code, de.status)
			return
		}
	}
	writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
}
