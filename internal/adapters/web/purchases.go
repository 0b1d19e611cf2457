package web

import (
	"net/http"
	"time"

	"sales-ledger/internal/app"
	"sales-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

type purchaseLinePayload struct {
	ProductName string `json:"product_name"`
	Kg          string `json:"kg"`
	UnitPrice   string `json:"unit_price"`
}

type createPurchasePayload struct {
	Supplier     string                `json:"supplier"`
	Lines        []purchaseLinePayload `json:"lines"`
	Notes        *string               `json:"notes,omitempty"`
	PurchaseTime *time.Time            `json:"purchase_time,omitempty"`
}

// createPurchase handles POST /api/purchases.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var payload createPurchasePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	lines := make([]app.PurchaseLineRequest, len(payload.Lines))
	for i, l := range payload.Lines {
		kg, ok := parseDecimalField(w, r, l.Kg, "kg")
		if !ok {
			return
		}
		unitPrice, ok := parseDecimalField(w, r, l.UnitPrice, "unit_price")
		if !ok {
			return
		}
		lines[i] = app.PurchaseLineRequest{
			ProductName: l.ProductName,
			Kg:          kg,
			UnitPrice:   unitPrice,
		}
	}

	result, err := h.svc.CreatePurchase(r.Context(), app.CreatePurchaseRequest{
		Supplier:     payload.Supplier,
		Lines:        lines,
		Notes:        payload.Notes,
		PurchaseTime: payload.PurchaseTime,
		Actor:        actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// listPurchases handles GET /api/purchases with optional filters.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	filter := core.PurchaseFilter{
		Status: core.RecordStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
	}
	if from, ok := queryDate(r, "from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := queryDate(r, "to"); ok {
		filter.DateTo = &to
	}

	result, err := h.svc.ListPurchases(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Purchases)
}

// voidPurchase handles POST /api/purchases/{id}/void.
func (h *Handler) voidPurchase(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.svc.VoidPurchase(r.Context(), chi.URLParam(r, "id"), payload.Reason, actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}
