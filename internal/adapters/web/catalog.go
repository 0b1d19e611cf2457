package web

import (
	"net/http"

	"sales-ledger/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func includeInactive(r *http.Request) bool {
	return r.URL.Query().Get("all") == "true"
}

// parseOptionalDecimal converts an optional decimal-string payload field.
func parseOptionalDecimal(w http.ResponseWriter, r *http.Request, value *string, field string) (*decimal.Decimal, bool) {
	if value == nil {
		return nil, true
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		writeError(w, r, "invalid "+field+": "+*value, "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &d, true
}

// listSpecs handles GET /api/catalog/specs.
func (h *Handler) listSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := h.svc.ListSpecs(r.Context(), includeInactive(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, specs)
}

// createSpec handles POST /api/catalog/specs.
func (h *Handler) createSpec(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string  `json:"name"`
		Width    *string `json:"width,omitempty"`
		Length   *string `json:"length,omitempty"`
		KgPerBox string  `json:"kg_per_box"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	kgPerBox, ok := parseDecimalField(w, r, payload.KgPerBox, "kg_per_box")
	if !ok {
		return
	}
	width, ok := parseOptionalDecimal(w, r, payload.Width, "width")
	if !ok {
		return
	}
	length, ok := parseOptionalDecimal(w, r, payload.Length, "length")
	if !ok {
		return
	}

	spec, err := h.svc.CreateSpec(r.Context(), core.CreateSpecInput{
		Name:     payload.Name,
		Width:    width,
		Length:   length,
		KgPerBox: kgPerBox,
		Actor:    actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, spec)
}

// updateSpec handles PATCH /api/catalog/specs/{id}.
func (h *Handler) updateSpec(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var payload struct {
		Name     *string `json:"name,omitempty"`
		Width    *string `json:"width,omitempty"`
		Length   *string `json:"length,omitempty"`
		KgPerBox *string `json:"kg_per_box,omitempty"`
		Active   *bool   `json:"active,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	width, ok := parseOptionalDecimal(w, r, payload.Width, "width")
	if !ok {
		return
	}
	length, ok := parseOptionalDecimal(w, r, payload.Length, "length")
	if !ok {
		return
	}
	kgPerBox, ok := parseOptionalDecimal(w, r, payload.KgPerBox, "kg_per_box")
	if !ok {
		return
	}

	spec, err := h.svc.UpdateSpec(r.Context(), id, core.UpdateSpecInput{
		Name:     payload.Name,
		Width:    width,
		Length:   length,
		KgPerBox: kgPerBox,
		Active:   payload.Active,
		Actor:    actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, spec)
}

// listCustomers handles GET /api/catalog/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context(), includeInactive(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// createCustomer handles POST /api/catalog/customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name          string  `json:"name"`
		CreditAllowed bool    `json:"credit_allowed"`
		Notes         *string `json:"notes,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	customer, err := h.svc.CreateCustomer(r.Context(), core.CreateCustomerInput{
		Name:          payload.Name,
		CreditAllowed: payload.CreditAllowed,
		Notes:         payload.Notes,
		Actor:         actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

// updateCustomer handles PATCH /api/catalog/customers/{id}.
func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var payload struct {
		Name          *string `json:"name,omitempty"`
		CreditAllowed *bool   `json:"credit_allowed,omitempty"`
		Active        *bool   `json:"active,omitempty"`
		Notes         *string `json:"notes,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	customer, err := h.svc.UpdateCustomer(r.Context(), id, core.UpdateCustomerInput{
		Name:          payload.Name,
		CreditAllowed: payload.CreditAllowed,
		Active:        payload.Active,
		Notes:         payload.Notes,
		Actor:         actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

// listProducts handles GET /api/catalog/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context(), includeInactive(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// updateProduct handles PATCH /api/catalog/products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var payload struct {
		Name        *string `json:"name,omitempty"`
		CashPrice   *string `json:"cash_price,omitempty"`
		CreditPrice *string `json:"credit_price,omitempty"`
		Active      *bool   `json:"active,omitempty"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	cashPrice, ok := parseOptionalDecimal(w, r, payload.CashPrice, "cash_price")
	if !ok {
		return
	}
	creditPrice, ok := parseOptionalDecimal(w, r, payload.CreditPrice, "credit_price")
	if !ok {
		return
	}

	product, err := h.svc.UpdateProduct(r.Context(), id, core.UpdateProductInput{
		Name:        payload.Name,
		CashPrice:   cashPrice,
		CreditPrice: creditPrice,
		Active:      payload.Active,
		Actor:       actorFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// getConfig handles GET /api/config.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetConfig(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// setConfig handles PUT /api/config/{key}.
func (h *Handler) setConfig(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	entry, err := h.svc.SetConfig(r.Context(), chi.URLParam(r, "key"), payload.Value, actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, entry)
}
