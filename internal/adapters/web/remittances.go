package web

import (
	"net/http"
	"time"

	"sales-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// createRemittance handles POST /api/remittances.
func (h *Handler) createRemittance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SaleID         string     `json:"sale_id"`
		Amount         string     `json:"amount"`
		Notes          *string    `json:"notes,omitempty"`
		RemittanceTime *time.Time `json:"remittance_time,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	amount, ok := parseDecimalField(w, r, payload.Amount, "amount")
	if !ok {
		return
	}

	result, err := h.svc.CreateRemittance(r.Context(), app.CreateRemittanceRequest{
		SaleID:         payload.SaleID,
		Amount:         amount,
		Notes:          payload.Notes,
		RemittanceTime: payload.RemittanceTime,
		Actor:          actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Remittance)
}

// remittanceSummary handles GET /api/sales/{id}/remittances/summary.
func (h *Handler) remittanceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.RemittanceSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// remittanceHistory handles GET /api/sales/{id}/remittances.
func (h *Handler) remittanceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.RemittanceHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, history)
}

// listCreditSales handles GET /api/remittances/credit-sales.
func (h *Handler) listCreditSales(w http.ResponseWriter, r *http.Request) {
	balances, err := h.svc.ListCreditSales(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, balances)
}
