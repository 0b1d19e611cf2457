package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"sales-ledger/internal/app"
	"sales-ledger/internal/core"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc             app.ApplicationService
	router          chi.Router
	jwtSecret       string
	defaultOperator string
	logger          *zap.Logger
}

// NewHandler creates and wires the chi router with all routes. An empty
// jwtSecret disables the auth gate: every request then acts as
// defaultOperator. That mode is for single-operator deployments behind a
// trusted network only.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret, defaultOperator string, logger *zap.Logger) http.Handler {
	if defaultOperator == "" {
		defaultOperator = core.DefaultOperator
	}
	h := &Handler{
		svc:             svc,
		jwtSecret:       jwtSecret,
		defaultOperator: defaultOperator,
		logger:          logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(h.Logger)
	r.Use(h.Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes ─────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireActor)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Sales
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales", h.listSales)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/void", h.voidSale)

		// Purchases
		r.Post("/api/purchases", h.createPurchase)
		r.Get("/api/purchases", h.listPurchases)
		r.Get("/api/purchases/{id}", h.getPurchase)
		r.Post("/api/purchases/{id}/void", h.voidPurchase)

		// Inventory
		r.Get("/api/stock", h.currentStock)
		r.Get("/api/stock/moves", h.listMoves)
		r.Post("/api/stock/moves", h.recordMove)
		r.Get("/api/stock/by-product", h.stockByProduct)
		r.Get("/api/stock/by-type", h.stockByType)
		r.Get("/api/stock/history", h.stockHistory)
		r.Post("/api/stock/reconcile", h.reconcile)

		// Remittances
		r.Post("/api/remittances", h.createRemittance)
		r.Get("/api/remittances/credit-sales", h.listCreditSales)
		r.Get("/api/sales/{id}/remittances", h.remittanceHistory)
		r.Get("/api/sales/{id}/remittances/summary", h.remittanceSummary)

		// Reports
		r.Get("/api/reports/today", h.todaySummary)
		r.Get("/api/reports/daily", h.dailyReport)
		r.Get("/api/reports/customers", h.customerRanking)
		r.Get("/api/reports/specs", h.specUsage)

		// Catalog
		r.Get("/api/catalog/specs", h.listSpecs)
		r.Post("/api/catalog/specs", h.createSpec)
		r.Patch("/api/catalog/specs/{id}", h.updateSpec)
		r.Get("/api/catalog/customers", h.listCustomers)
		r.Post("/api/catalog/customers", h.createCustomer)
		r.Patch("/api/catalog/customers/{id}", h.updateCustomer)
		r.Get("/api/catalog/products", h.listProducts)
		r.Patch("/api/catalog/products/{id}", h.updateProduct)

		// Configuration
		r.Get("/api/config", h.getConfig)
		r.Put("/api/config/{key}", h.setConfig)

		// AI order intake
		r.Post("/api/intake/interpret", h.interpretOrder)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
