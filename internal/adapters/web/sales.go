package web

import (
	"net/http"
	"time"

	"sales-ledger/internal/app"
	"sales-ledger/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type saleLinePayload struct {
	SpecID    int    `json:"spec_id"`
	ProductID *int   `json:"product_id,omitempty"`
	BoxQty    int    `json:"box_qty"`
	ExtraKg   string `json:"extra_kg"` // decimal string, "" means 0
}

type createSalePayload struct {
	CustomerID  int               `json:"customer_id"`
	PaymentType string            `json:"payment_type"`
	Lines       []saleLinePayload `json:"lines"`
	Discount    string            `json:"discount"`     // decimal string, "" means 0
	ManualTotal *string           `json:"manual_total"` // decimal string, overrides the computed total
	SaleTime    *time.Time        `json:"sale_time"`
}

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var payload createSalePayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	lines := make([]app.SaleLineRequest, len(payload.Lines))
	for i, l := range payload.Lines {
		extraKg, ok := parseDecimalField(w, r, l.ExtraKg, "extra_kg")
		if !ok {
			return
		}
		lines[i] = app.SaleLineRequest{
			SpecID:    l.SpecID,
			ProductID: l.ProductID,
			BoxQty:    l.BoxQty,
			ExtraKg:   extraKg,
		}
	}

	discount, ok := parseDecimalField(w, r, payload.Discount, "discount")
	if !ok {
		return
	}

	var manualTotal *decimal.Decimal
	if payload.ManualTotal != nil {
		mt, err := decimal.NewFromString(*payload.ManualTotal)
		if err != nil {
			writeError(w, r, "invalid manual_total: "+*payload.ManualTotal, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		manualTotal = &mt
	}

	result, err := h.svc.CreateSale(r.Context(), app.CreateSaleRequest{
		CustomerID:  payload.CustomerID,
		PaymentType: payload.PaymentType,
		Lines:       lines,
		Discount:    discount,
		ManualTotal: manualTotal,
		SaleTime:    payload.SaleTime,
		Actor:       actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// listSales handles GET /api/sales with optional status/date/limit filters.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	filter := core.SaleFilter{
		Status: core.RecordStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
	}
	if from, ok := queryDate(r, "from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := queryDate(r, "to"); ok {
		filter.DateTo = &to
	}

	result, err := h.svc.ListSales(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Sales)
}

// voidSale handles POST /api/sales/{id}/void.
func (h *Handler) voidSale(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.svc.VoidSale(r.Context(), chi.URLParam(r, "id"), payload.Reason, actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}
