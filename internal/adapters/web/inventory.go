package web

import (
	"net/http"

	"sales-ledger/internal/app"
	"sales-ledger/internal/core"
)

// currentStock handles GET /api/stock.
func (h *Handler) currentStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CurrentStock(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Snapshot)
}

// recordMove handles POST /api/stock/moves.
func (h *Handler) recordMove(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MoveType string  `json:"move_type"`
		Source   string  `json:"source"`
		Kg       string  `json:"kg"`
		Notes    *string `json:"notes,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	kg, ok := parseDecimalField(w, r, payload.Kg, "kg")
	if !ok {
		return
	}

	result, err := h.svc.RecordMove(r.Context(), app.RecordMoveRequest{
		MoveType: core.MoveType(payload.MoveType),
		Source:   payload.Source,
		Kg:       kg,
		Notes:    payload.Notes,
		Actor:    actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Move)
}

// listMoves handles GET /api/stock/moves with optional filters.
func (h *Handler) listMoves(w http.ResponseWriter, r *http.Request) {
	filter := core.MoveFilter{
		MoveType: core.MoveType(r.URL.Query().Get("type")),
		Status:   core.RecordStatus(r.URL.Query().Get("status")),
		Limit:    queryInt(r, "limit"),
	}
	if from, ok := queryDate(r, "from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := queryDate(r, "to"); ok {
		filter.DateTo = &to
	}

	result, err := h.svc.ListMoves(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Moves)
}

// stockByProduct handles GET /api/stock/by-product.
func (h *Handler) stockByProduct(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.svc.StockByProduct(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, stocks)
}

// stockByType handles GET /api/stock/by-type.
func (h *Handler) stockByType(w http.ResponseWriter, r *http.Request) {
	totals, err := h.svc.StockByType(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, totals)
}

// stockHistory handles GET /api/stock/history?days=N.
func (h *Handler) stockHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.StockHistory(r.Context(), queryInt(r, "days"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, history)
}

// reconcile handles POST /api/stock/reconcile.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ActualKg string  `json:"actual_kg"`
		Notes    *string `json:"notes,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	actualKg, ok := parseDecimalField(w, r, payload.ActualKg, "actual_kg")
	if !ok {
		return
	}

	result, err := h.svc.Reconcile(r.Context(), app.ReconcileRequest{
		ActualKg: actualKg,
		Notes:    payload.Notes,
		Actor:    actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Check)
}
