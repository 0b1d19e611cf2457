package app

import (
	"context"
	"time"

	"sales-ledger/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateSale creates a new sale with derived weights, amounts and the
	// outbound stock move.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error)

	// VoidSale voids an active sale and the stock moves it produced.
	VoidSale(ctx context.Context, saleID, reason, actor string) (*SaleResult, error)

	// GetSale returns one sale with its items.
	GetSale(ctx context.Context, saleID string) (*SaleResult, error)

	// ListSales returns sales, newest first, honoring the filter.
	ListSales(ctx context.Context, filter core.SaleFilter) (*SaleListResult, error)

	// CreatePurchase records a goods receipt and its inbound stock move.
	CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error)

	// VoidPurchase voids a purchase and appends a compensating return move.
	VoidPurchase(ctx context.Context, purchaseID, reason, actor string) (*PurchaseResult, error)

	GetPurchase(ctx context.Context, purchaseID string) (*PurchaseResult, error)
	ListPurchases(ctx context.Context, filter core.PurchaseFilter) (*PurchaseListResult, error)

	// RecordMove appends a manual inventory move (transfer, return, count
	// adjustments). Sale moves are rejected here.
	RecordMove(ctx context.Context, req RecordMoveRequest) (*MoveResult, error)

	// CurrentStock returns the live stock level with the low-stock flag.
	CurrentStock(ctx context.Context) (*StockResult, error)

	ListMoves(ctx context.Context, filter core.MoveFilter) (*MoveListResult, error)
	StockByProduct(ctx context.Context) ([]core.ProductStock, error)
	StockHistory(ctx context.Context, days int) ([]core.StockHistoryPoint, error)
	StockByType(ctx context.Context) ([]core.MoveTypeTotal, error)

	// Reconcile records a physical count and, when it differs from the
	// ledger, the compensating adjustment move.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)

	// CreateRemittance records a payment against a credit sale.
	CreateRemittance(ctx context.Context, req CreateRemittanceRequest) (*RemittanceResult, error)

	RemittanceSummary(ctx context.Context, saleID string) (*core.RemittanceSummary, error)
	RemittanceHistory(ctx context.Context, saleID string) ([]core.Remittance, error)
	ListCreditSales(ctx context.Context) ([]core.CreditSaleBalance, error)

	// TodaySummary returns the dashboard numbers for the current day.
	TodaySummary(ctx context.Context) (*core.TodaySummary, error)

	// DailyReport returns the full report for one day, including FIFO cost
	// and profit.
	DailyReport(ctx context.Context, day time.Time) (*core.DailyReport, error)

	CustomerRanking(ctx context.Context, from, to time.Time, limit int) ([]core.CustomerRank, error)
	SpecUsage(ctx context.Context, from, to time.Time) ([]core.SpecUsage, error)

	// Catalog management.
	CreateSpec(ctx context.Context, input core.CreateSpecInput) (*core.Spec, error)
	UpdateSpec(ctx context.Context, id int, input core.UpdateSpecInput) (*core.Spec, error)
	ListSpecs(ctx context.Context, includeInactive bool) ([]core.Spec, error)
	CreateCustomer(ctx context.Context, input core.CreateCustomerInput) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, id int, input core.UpdateCustomerInput) (*core.Customer, error)
	ListCustomers(ctx context.Context, includeInactive bool) ([]core.Customer, error)
	UpdateProduct(ctx context.Context, id int, input core.UpdateProductInput) (*core.Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]core.Product, error)

	// System configuration.
	GetConfig(ctx context.Context) ([]core.ConfigEntry, error)
	SetConfig(ctx context.Context, key, value, actor string) (*core.ConfigEntry, error)

	// InterpretOrder sends natural-language order text to the AI agent and
	// returns either a sale draft or a clarification request.
	InterpretOrder(ctx context.Context, text string) (*IntakeResult, error)
}
